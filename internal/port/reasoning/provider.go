// Package reasoning defines the port for the external reasoning component
// that maps a user message onto task-tool invocations. The contract is
// deliberately neutral: implementations translate it to whatever wire format
// their backend speaks, and the orchestrator never depends on more than what
// is defined here.
package reasoning

import (
	"context"
	"encoding/json"
)

// ToolSpec describes one callable tool offered to the provider.
// Parameters holds a JSON Schema object for the tool's arguments.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// ProposedCall is one tool invocation proposed by the provider. ID is an
// opaque provider-assigned identifier that must be echoed back with the
// matching CallResult so multi-round providers can pair results to calls.
type ProposedCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// CallResult carries one executed call's outcome back to the provider.
// Content is the serialized structured result (success payload or
// {"error": ...}).
type CallResult struct {
	CallID  string
	Name    string
	Content string
}

// Round pairs the calls proposed in one routing round with their execution
// results, in order.
type Round struct {
	Calls   []ProposedCall
	Results []CallResult
}

// HistoryMessage is one entry of the bounded prior history.
type HistoryMessage struct {
	Role    string // "user" or "assistant"
	Content string
}

// Request is the input to one routing round: the system contract, the
// bounded history, the new user message, the tools on offer, and any rounds
// already completed within this turn (empty on the first round).
type Request struct {
	System  string
	History []HistoryMessage
	Message string
	Tools   []ToolSpec
	Rounds  []Round
}

// Result is the outcome of one routing round. A non-empty Calls slice asks
// the caller to execute those tools in order and route again with the
// results appended; an empty Calls slice ends the turn with Reply as the
// assistant's final text.
type Result struct {
	Calls []ProposedCall
	Reply string
	Model string
}

// Provider is the swappable reasoning backend.
type Provider interface {
	// Name identifies the backend ("openai", "groq") for logs and metrics.
	Name() string

	// Route performs one reasoning round. It must respect ctx cancellation
	// and deadline; the caller bounds the cumulative routing time per turn.
	Route(ctx context.Context, req Request) (*Result, error)
}
