// Package conversation defines chat threads, messages, and the per-turn
// tool-call record.
package conversation

import (
	"encoding/json"
	"time"
)

// Message roles. The orchestrator persists only user and assistant rows;
// the system prompt is rebuilt per turn and never stored.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is a chat thread belonging to one owner.
type Conversation struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single entry in a conversation's append-only history.
// ToolCalls holds the marshalled []ToolCall of the turn that produced an
// assistant message.
type Message struct {
	ID             int64           `json:"id"`
	ConversationID int64           `json:"conversation_id"`
	Role           string          `json:"role"`
	Content        string          `json:"content"`
	ToolCalls      json.RawMessage `json:"tool_calls,omitempty"`
	Model          string          `json:"model,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToolCall records one tool invocation made during a turn: which tool, the
// arguments it was given, and the structured result (success payload or
// {"error": ...}). Not persisted as its own entity; it lives in the turn
// response and as metadata on the assistant Message.
type ToolCall struct {
	ToolName  string          `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
	Result    json.RawMessage `json:"result"`
}

// TurnRequest is the inbound contract of a chat turn.
type TurnRequest struct {
	ConversationID *int64 `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// TurnResponse is the outbound contract: the (possibly new) conversation id,
// the assistant's reply, and every tool call made, in execution order.
type TurnResponse struct {
	ConversationID int64      `json:"conversation_id"`
	Response       string     `json:"response"`
	ToolCalls      []ToolCall `json:"tool_calls"`
}
