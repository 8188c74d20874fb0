package http

import (
	"net/http"
	"strconv"

	"github.com/taskchat/taskchat/internal/domain/conversation"
	"github.com/taskchat/taskchat/internal/middleware"
)

func conversationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(urlParam(r, "conversation_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return 0, false
	}
	return id, true
}

// ListConversations handles GET /api/{user_id}/conversations.
func (h *Handlers) ListConversations(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())
	conversations, err := h.Conversations.List(r.Context(), owner)
	if err != nil {
		writeDomainError(w, err, "Conversation not found")
		return
	}
	if conversations == nil {
		conversations = []conversation.Conversation{}
	}
	writeJSON(w, http.StatusOK, conversations)
}

// ListConversationMessages handles GET /api/{user_id}/conversations/{conversation_id}/messages.
func (h *Handlers) ListConversationMessages(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())
	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	messages, err := h.Conversations.Messages(r.Context(), owner, id)
	if err != nil {
		writeDomainError(w, err, "Conversation not found")
		return
	}
	if messages == nil {
		messages = []conversation.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// DeleteConversation handles DELETE /api/{user_id}/conversations/{conversation_id}.
func (h *Handlers) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())
	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	if err := h.Conversations.Delete(r.Context(), owner, id); err != nil {
		writeDomainError(w, err, "Conversation not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
