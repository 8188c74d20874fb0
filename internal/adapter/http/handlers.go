package http

import (
	"context"
	"net/http"
	"time"

	"github.com/taskchat/taskchat/internal/port/messagequeue"
	"github.com/taskchat/taskchat/internal/port/reasoning"
	"github.com/taskchat/taskchat/internal/service"
)

// Pinger reports backing store liveness. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Tasks         *service.TaskService
	Turns         *service.TurnService
	Conversations *service.ConversationService
	Auth          *service.AuthService

	// Health probes. DB is the live pool; Queue and Provider may be nil
	// when the deployment runs without NATS or without an API key.
	DB       Pinger
	Queue    messagequeue.Queue
	Provider reasoning.Provider

	Version string
}

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version,omitempty"`
	Database  string `json:"database"`
	Queue     string `json:"queue"`
	Reasoning string `json:"reasoning"`
}

// Root handles GET /.
func (h *Handlers) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Todo Chatbot API is running",
		"version": h.Version,
	})
}

// Health handles GET /health. It always answers 200 so a degraded component
// never causes orchestrators to kill a pod that can still serve traffic;
// degradation is reported in the body instead.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "healthy",
		Service: "taskchat",
		Version: h.Version,
	}

	if h.DB == nil {
		resp.Database = "disconnected"
		resp.Status = "degraded"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			resp.Database = "disconnected"
			resp.Status = "degraded"
		} else {
			resp.Database = "connected"
		}
	}

	// A queue outage never degrades overall status: chat turns and CRUD
	// keep working, only event fan-out stops.
	switch {
	case h.Queue == nil:
		resp.Queue = "disabled"
	case h.Queue.IsConnected():
		resp.Queue = "connected"
	default:
		resp.Queue = "disconnected"
	}

	if h.Provider == nil {
		resp.Reasoning = "unconfigured"
		resp.Status = "degraded"
	} else {
		resp.Reasoning = h.Provider.Name()
	}

	writeJSON(w, http.StatusOK, resp)
}
