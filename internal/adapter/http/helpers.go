package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taskchat/taskchat/internal/domain"
	"github.com/taskchat/taskchat/internal/domain/conversation"
	"github.com/taskchat/taskchat/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		if err.Error() == "http: request body too large" {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

// urlParam is a short alias for chi.URLParam.
func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// errorResponse is the error body shape. The detail key matches what the
// bundled frontend reads.
type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// errDetail strips the trailing sentinel from a wrapped error so clients see
// only the human-readable part.
func errDetail(err, sentinel error) string {
	return strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
}

// writeDomainError maps service errors onto status codes for the CRUD
// endpoints. notFoundMsg keeps the per-resource phrasing clients key on.
func writeDomainError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, errDetail(err, domain.ErrValidation))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, errDetail(err, domain.ErrUnauthorized))
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, errDetail(err, domain.ErrConflict))
	case errors.Is(err, domain.ErrStoreUnavailable):
		slog.Error("store unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Database temporarily unavailable")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// turnErrorResponse is the error body for a failed chat turn. Tool calls
// that executed before the failure ride along so the client can show what
// changed.
type turnErrorResponse struct {
	Detail         string                  `json:"detail"`
	ConversationID int64                   `json:"conversation_id,omitempty"`
	Response       string                  `json:"response,omitempty"`
	ToolCalls      []conversation.ToolCall `json:"tool_calls,omitempty"`
}

// writeTurnError maps a chat turn failure onto the error taxonomy. Timeout,
// provider, and store failures get distinct codes so clients can tell
// retryable conditions apart.
func writeTurnError(w http.ResponseWriter, err error) {
	resp := turnErrorResponse{}
	var turnErr *service.TurnError
	if errors.As(err, &turnErr) && turnErr.Partial != nil {
		resp.ConversationID = turnErr.Partial.ConversationID
		resp.Response = turnErr.Partial.Response
		resp.ToolCalls = turnErr.Partial.ToolCalls
	}

	status := http.StatusBadGateway
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, errDetail(err, domain.ErrValidation))
		return
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	case errors.Is(err, domain.ErrReasoningTimeout):
		status = http.StatusGatewayTimeout
		resp.Detail = "Request timed out"
	case errors.Is(err, domain.ErrProviderUnavailable):
		status = http.StatusServiceUnavailable
		resp.Detail = "Task service temporarily unavailable"
	case errors.Is(err, domain.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
		resp.Detail = "Database temporarily unavailable"
	default:
		resp.Detail = "AI service temporarily unavailable"
	}

	slog.Error("chat turn failed", "status", status, "error", err)
	writeJSON(w, status, resp)
}
