// Package a2a exposes the agent-to-agent surface: a discovery card and a
// synchronous message endpoint that runs one chat turn per request.
package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/taskchat/taskchat/internal/domain"
	"github.com/taskchat/taskchat/internal/domain/conversation"
)

// TurnRunner runs one chat turn for an owner. *service.TurnService
// satisfies it.
type TurnRunner interface {
	Run(ctx context.Context, owner string, req conversation.TurnRequest) (*conversation.TurnResponse, error)
}

// Handler serves the A2A protocol endpoints.
type Handler struct {
	baseURL   string
	version   string
	demoOwner string
	turns     TurnRunner
}

// NewHandler creates an A2A handler. Messages without a user_id run as
// demoOwner.
func NewHandler(baseURL, version, demoOwner string, turns TurnRunner) *Handler {
	return &Handler{
		baseURL:   baseURL,
		version:   version,
		demoOwner: demoOwner,
		turns:     turns,
	}
}

// MountRoutes registers the A2A routes. These live at the root level, not
// under /api.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/.well-known/agent.json", h.handleAgentCard)
	r.Post("/a2a/messages", h.handleMessage)
}

func (h *Handler) handleAgentCard(w http.ResponseWriter, _ *http.Request) {
	card := BuildAgentCard(h.baseURL, h.version)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(card)
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, `{"error":"message is required"}`, http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	owner := req.UserID
	if owner == "" {
		owner = h.demoOwner
	}

	resp := MessageResponse{ID: req.ID}
	out, err := h.turns.Run(r.Context(), owner, conversation.TurnRequest{
		ConversationID: req.ConversationID,
		Message:        req.Message,
	})
	if err != nil {
		slog.Warn("a2a message turn failed", "id", req.ID, "owner", owner, "error", err)
		resp.Status = "failed"
		resp.Error = messageError(err)
	} else {
		resp.Status = "completed"
		resp.Output = out
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// messageError reduces a turn failure to a protocol-safe string. Internal
// detail stays in the logs.
func messageError(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return strings.TrimSuffix(err.Error(), ": "+domain.ErrValidation.Error())
	case errors.Is(err, domain.ErrNotFound):
		return "conversation not found"
	case errors.Is(err, domain.ErrReasoningTimeout):
		return "request timed out"
	case errors.Is(err, domain.ErrProviderUnavailable):
		return "reasoning provider unavailable"
	default:
		return "turn failed"
	}
}
