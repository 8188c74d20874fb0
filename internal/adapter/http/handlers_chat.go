package http

import (
	"net/http"

	"github.com/taskchat/taskchat/internal/domain/conversation"
	"github.com/taskchat/taskchat/internal/middleware"
)

// Chat handles POST /api/{user_id}/chat. One request is one full turn: the
// message is persisted, routed through the reasoning provider, any proposed
// tool calls are executed, and the final reply comes back with the complete
// tool call record.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())
	req, ok := readJSON[conversation.TurnRequest](w, r)
	if !ok {
		return
	}

	resp, err := h.Turns.Run(r.Context(), owner, req)
	if err != nil {
		writeTurnError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
