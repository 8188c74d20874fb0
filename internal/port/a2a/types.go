package a2a

import "github.com/taskchat/taskchat/internal/domain/conversation"

// AgentCard describes this agent's capabilities per the A2A protocol.
type AgentCard struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	URL          string  `json:"url"`
	Version      string  `json:"version"`
	Skills       []Skill `json:"skills"`
	Capabilities struct {
		Streaming bool `json:"streaming"`
	} `json:"capabilities"`
}

// Skill describes a single capability of the agent.
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	InputModes  []string `json:"inputModes"`
	OutputModes []string `json:"outputModes"`
}

// MessageRequest is an incoming A2A message. UserID selects the owner
// namespace; when absent the message runs as the demo owner.
type MessageRequest struct {
	ID             string `json:"id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	ConversationID *int64 `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// MessageResponse reports the outcome of one message turn. Status is
// carried in-band; transport-level errors are reserved for malformed
// requests.
type MessageResponse struct {
	ID     string                     `json:"id"`
	Status string                     `json:"status"` // "completed" or "failed"
	Output *conversation.TurnResponse `json:"output,omitempty"`
	Error  string                     `json:"error,omitempty"`
}
