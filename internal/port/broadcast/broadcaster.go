// Package broadcast defines the port for pushing real-time events to
// connected clients.
package broadcast

import "context"

// Event types pushed to connected clients.
const (
	EventTaskChanged         = "task.changed"
	EventConversationMessage = "conversation.message"
)

// Broadcaster fans a typed event out to the owner's connected clients.
// Delivery is best effort; implementations must not block the caller on
// slow clients.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, owner, eventType string, payload any)
}
