package messagequeue

import "github.com/taskchat/taskchat/internal/domain/task"

// TurnEventPayload is the schema for chat.turns messages, one per chat
// turn, failed ones included.
type TurnEventPayload struct {
	OwnerID        string `json:"owner_id"`
	ConversationID int64  `json:"conversation_id"`
	Status         string `json:"status"` // ok or failed
	ToolCalls      int    `json:"tool_calls"`
	Model          string `json:"model,omitempty"`
	DurationMS     int64  `json:"duration_ms"`
}

// TaskEventPayload is the schema for tasks.events messages, one per task
// mutation. The same shape is broadcast to websocket clients.
type TaskEventPayload struct {
	Action string     `json:"action"` // created, updated, completed, reopened, deleted
	Task   *task.Task `json:"task"`
}
