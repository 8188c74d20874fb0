package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/taskchat/taskchat/internal/config"
	"github.com/taskchat/taskchat/internal/domain"
	"github.com/taskchat/taskchat/internal/domain/conversation"
	"github.com/taskchat/taskchat/internal/domain/task"
	"github.com/taskchat/taskchat/internal/port/broadcast"
	"github.com/taskchat/taskchat/internal/port/messagequeue"
	"github.com/taskchat/taskchat/internal/port/reasoning"
	"github.com/taskchat/taskchat/internal/resilience"
)

// scriptedProvider returns canned routing results in call order. The last
// step repeats once the script runs out.
type scriptedProvider struct {
	steps    []scriptedStep
	requests []reasoning.Request
}

type scriptedStep struct {
	res *reasoning.Result
	err error
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Route(_ context.Context, req reasoning.Request) (*reasoning.Result, error) {
	p.requests = append(p.requests, req)
	i := len(p.requests) - 1
	if i >= len(p.steps) {
		i = len(p.steps) - 1
	}
	step := p.steps[i]
	return step.res, step.err
}

func reply(text, model string) scriptedStep {
	return scriptedStep{res: &reasoning.Result{Reply: text, Model: model}}
}

func propose(model string, calls ...reasoning.ProposedCall) scriptedStep {
	return scriptedStep{res: &reasoning.Result{Calls: calls, Model: model}}
}

// blockingProvider never answers; it waits out the routing deadline.
type blockingProvider struct{}

func (blockingProvider) Name() string { return "blocking" }

func (blockingProvider) Route(ctx context.Context, _ reasoning.Request) (*reasoning.Result, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func newTestTurnService(t *testing.T, store *mockStore, p reasoning.Provider) *TurnService {
	t.Helper()
	svc, err := NewTurnService(store, p, NewToolExecutor(NewTaskService(store, nil, nil)),
		config.Chat{HistoryLimit: 10},
		config.Reasoning{Timeout: 250 * time.Millisecond, MaxConcurrent: 2})
	if err != nil {
		t.Fatalf("new turn service: %v", err)
	}
	return svc
}

func runTurn(t *testing.T, svc *TurnService, owner, message string) *conversation.TurnResponse {
	t.Helper()
	resp, err := svc.Run(context.Background(), owner, conversation.TurnRequest{Message: message})
	if err != nil {
		t.Fatalf("run turn: %v", err)
	}
	return resp
}

func TestTurnServiceEmptyMessage(t *testing.T) {
	store := &mockStore{}
	svc := newTestTurnService(t, store, &scriptedProvider{steps: []scriptedStep{reply("unused", "m")}})

	for _, message := range []string{"", "   ", "\n\t"} {
		_, err := svc.Run(context.Background(), "alice", conversation.TurnRequest{Message: message})
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("message %q: expected validation error, got %v", message, err)
		}
	}
	if len(store.conversations) != 0 {
		t.Fatalf("expected no conversation for rejected turns, got %d", len(store.conversations))
	}
}

func TestTurnServiceNoProvider(t *testing.T) {
	store := &mockStore{}
	svc := newTestTurnService(t, store, nil)

	_, err := svc.Run(context.Background(), "alice", conversation.TurnRequest{Message: "hello"})
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable, got %v", err)
	}
	var turnErr *TurnError
	if !errors.As(err, &turnErr) {
		t.Fatalf("expected *TurnError, got %T", err)
	}
	if len(store.conversations) != 0 {
		t.Fatal("expected no conversation to be created before the provider check")
	}
}

func TestTurnServiceDirectReply(t *testing.T) {
	store := &mockStore{}
	provider := &scriptedProvider{steps: []scriptedStep{reply("Hello there!", "gpt-test")}}
	svc := newTestTurnService(t, store, provider)

	resp := runTurn(t, svc, "alice", "hi")

	if resp.ConversationID == 0 {
		t.Fatal("expected a conversation to be created")
	}
	if resp.Response != "Hello there!" {
		t.Errorf("response = %q, want Hello there!", resp.Response)
	}
	if resp.ToolCalls == nil || len(resp.ToolCalls) != 0 {
		t.Errorf("tool calls = %v, want empty non-nil slice", resp.ToolCalls)
	}

	if len(store.messages) != 2 {
		t.Fatalf("expected user and assistant rows, got %d", len(store.messages))
	}
	if store.messages[0].Role != conversation.RoleUser || store.messages[0].Content != "hi" {
		t.Errorf("first row = %+v, want user 'hi'", store.messages[0])
	}
	assistant := store.messages[1]
	if assistant.Role != conversation.RoleAssistant || assistant.Content != "Hello there!" {
		t.Errorf("second row = %+v, want the assistant reply", assistant)
	}
	if assistant.Model != "gpt-test" {
		t.Errorf("model = %q, want gpt-test", assistant.Model)
	}
	if assistant.ToolCalls != nil {
		t.Errorf("expected no tool call metadata, got %s", assistant.ToolCalls)
	}
}

func TestTurnServiceToolRound(t *testing.T) {
	store := &mockStore{}
	provider := &scriptedProvider{steps: []scriptedStep{
		propose("gpt-test", reasoning.ProposedCall{
			ID:        "call_1",
			Name:      ToolAdd,
			Arguments: json.RawMessage(`{"title":"Buy milk"}`),
		}),
		reply("Added Buy milk to your list.", "gpt-test"),
	}}
	svc := newTestTurnService(t, store, provider)

	resp := runTurn(t, svc, "alice", "add buy milk")

	if len(store.tasks) != 1 || store.tasks[0].Title != "Buy milk" || store.tasks[0].OwnerID != "alice" {
		t.Fatalf("expected alice's task Buy milk in store, got %+v", store.tasks)
	}

	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call record, got %d", len(resp.ToolCalls))
	}
	record := resp.ToolCalls[0]
	if record.ToolName != ToolAdd {
		t.Errorf("tool = %q, want %q", record.ToolName, ToolAdd)
	}
	var args map[string]any
	if err := json.Unmarshal(record.Arguments, &args); err != nil {
		t.Fatalf("unmarshal recorded arguments: %v", err)
	}
	if args["owner_id"] != "alice" {
		t.Errorf("recorded owner = %v, want alice", args["owner_id"])
	}
	if args["title"] != "Buy milk" {
		t.Errorf("recorded title = %v, want Buy milk", args["title"])
	}

	// The provider was routed twice and saw the executed round the second time.
	if len(provider.requests) != 2 {
		t.Fatalf("expected 2 routing rounds, got %d", len(provider.requests))
	}
	second := provider.requests[1]
	if len(second.Rounds) != 1 {
		t.Fatalf("expected 1 completed round in second request, got %d", len(second.Rounds))
	}
	result := second.Rounds[0].Results[0]
	if result.CallID != "call_1" {
		t.Errorf("result call id = %q, want call_1", result.CallID)
	}
	if !strings.Contains(result.Content, "Buy milk") {
		t.Errorf("result content %q does not mention the task", result.Content)
	}

	// The assistant row carries the call records as metadata.
	assistant := store.messages[len(store.messages)-1]
	var meta []conversation.ToolCall
	if err := json.Unmarshal(assistant.ToolCalls, &meta); err != nil {
		t.Fatalf("unmarshal assistant metadata: %v", err)
	}
	if len(meta) != 1 || meta[0].ToolName != ToolAdd {
		t.Errorf("assistant metadata = %+v, want the add call", meta)
	}
}

func TestTurnServiceChainedDeleteByName(t *testing.T) {
	store := &mockStore{}
	ctx := context.Background()
	for _, title := range []string{"Walk the dog", "Buy groceries"} {
		if _, err := store.CreateTask(ctx, "alice", task.CreateRequest{Title: title}); err != nil {
			t.Fatalf("seed task %q: %v", title, err)
		}
	}

	// The provider resolves "the groceries task" by listing first, then
	// deleting the id whose title matched.
	provider := &scriptedProvider{steps: []scriptedStep{
		propose("m", reasoning.ProposedCall{ID: "c1", Name: ToolList, Arguments: json.RawMessage(`{}`)}),
		propose("m", reasoning.ProposedCall{ID: "c2", Name: ToolDelete, Arguments: json.RawMessage(`{"task_id":2}`)}),
		reply("Removed the groceries task.", "m"),
	}}
	svc := newTestTurnService(t, store, provider)

	resp := runTurn(t, svc, "alice", "Remove the groceries task")

	if len(resp.ToolCalls) != 2 {
		t.Fatalf("expected list then delete, got %d records", len(resp.ToolCalls))
	}
	if resp.ToolCalls[0].ToolName != ToolList || resp.ToolCalls[1].ToolName != ToolDelete {
		t.Fatalf("call order = %s, %s; want %s, %s",
			resp.ToolCalls[0].ToolName, resp.ToolCalls[1].ToolName, ToolList, ToolDelete)
	}

	// The second routing round carried the list payload the id was resolved
	// from.
	second := provider.requests[1]
	if len(second.Rounds) != 1 {
		t.Fatalf("expected 1 completed round in second request, got %d", len(second.Rounds))
	}
	if !strings.Contains(second.Rounds[0].Results[0].Content, "Buy groceries") {
		t.Errorf("list result %q does not name the task", second.Rounds[0].Results[0].Content)
	}

	var deleted taskSummary
	if err := json.Unmarshal(resp.ToolCalls[1].Result, &deleted); err != nil {
		t.Fatalf("unmarshal delete result: %v", err)
	}
	if deleted.Title != "Buy groceries" {
		t.Errorf("deleted title = %q, want Buy groceries", deleted.Title)
	}
	if len(store.tasks) != 1 || store.tasks[0].Title != "Walk the dog" {
		t.Errorf("remaining tasks = %+v, want only Walk the dog", store.tasks)
	}
}

func TestTurnServiceSummarizesWhenReplyEmpty(t *testing.T) {
	store := &mockStore{}
	provider := &scriptedProvider{steps: []scriptedStep{
		propose("m", reasoning.ProposedCall{ID: "c1", Name: ToolAdd, Arguments: json.RawMessage(`{"title":"Water plants"}`)}),
		reply("", "m"),
	}}
	svc := newTestTurnService(t, store, provider)

	resp := runTurn(t, svc, "alice", "add water plants")
	if resp.Response != `Added "Water plants" to your list.` {
		t.Fatalf("response = %q, want the add summary", resp.Response)
	}
}

func TestTurnServiceFallbackReply(t *testing.T) {
	svc := newTestTurnService(t, &mockStore{}, &scriptedProvider{steps: []scriptedStep{reply("", "m")}})

	resp := runTurn(t, svc, "alice", "say nothing")
	if resp.Response != fallbackReply {
		t.Fatalf("response = %q, want fallback", resp.Response)
	}
}

func TestTurnServiceToolErrorDoesNotFailTurn(t *testing.T) {
	store := &mockStore{}
	provider := &scriptedProvider{steps: []scriptedStep{
		propose("m", reasoning.ProposedCall{ID: "c1", Name: ToolComplete, Arguments: json.RawMessage(`{"task_id":99}`)}),
		reply("That task does not exist.", "m"),
	}}
	svc := newTestTurnService(t, store, provider)

	resp := runTurn(t, svc, "alice", "complete task 99")

	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected the failed call to be recorded, got %d records", len(resp.ToolCalls))
	}
	var fe foldedError
	if err := json.Unmarshal(resp.ToolCalls[0].Result, &fe); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if fe.Error != errKindNotFound {
		t.Errorf("error kind = %q, want %q", fe.Error, errKindNotFound)
	}
	if resp.Response != "That task does not exist." {
		t.Errorf("response = %q, want the provider text", resp.Response)
	}
}

func TestTurnServiceTimeout(t *testing.T) {
	store := &mockStore{}
	svc, err := NewTurnService(store, blockingProvider{}, NewToolExecutor(NewTaskService(store, nil, nil)),
		config.Chat{HistoryLimit: 10},
		config.Reasoning{Timeout: 30 * time.Millisecond, MaxConcurrent: 1})
	if err != nil {
		t.Fatalf("new turn service: %v", err)
	}

	_, err = svc.Run(context.Background(), "alice", conversation.TurnRequest{Message: "hello"})
	if !errors.Is(err, domain.ErrReasoningTimeout) {
		t.Fatalf("expected reasoning timeout, got %v", err)
	}

	var turnErr *TurnError
	if !errors.As(err, &turnErr) {
		t.Fatalf("expected *TurnError, got %T", err)
	}
	if turnErr.Partial == nil {
		t.Fatal("expected partial response")
	}
	if len(turnErr.Partial.ToolCalls) != 0 {
		t.Errorf("expected no tool calls before timeout, got %d", len(turnErr.Partial.ToolCalls))
	}

	// The failure notice is persisted so the transcript explains itself.
	assistant := store.messages[len(store.messages)-1]
	if assistant.Role != conversation.RoleAssistant {
		t.Fatalf("expected trailing assistant row, got %+v", assistant)
	}
	if !strings.Contains(assistant.Content, "took too long") {
		t.Errorf("notice = %q, want timeout wording", assistant.Content)
	}
	if turnErr.Partial.Response != assistant.Content {
		t.Errorf("partial response %q differs from persisted notice %q", turnErr.Partial.Response, assistant.Content)
	}
}

func TestTurnServiceProviderFailure(t *testing.T) {
	store := &mockStore{}
	provider := &scriptedProvider{steps: []scriptedStep{{err: fmt.Errorf("upstream said no")}}}
	svc := newTestTurnService(t, store, provider)

	_, err := svc.Run(context.Background(), "alice", conversation.TurnRequest{Message: "hello"})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrReasoningTimeout) || errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("generic provider failure misclassified: %v", err)
	}
	var turnErr *TurnError
	if !errors.As(err, &turnErr) {
		t.Fatalf("expected *TurnError, got %T", err)
	}
	if !strings.Contains(turnErr.Partial.Response, "something went wrong") {
		t.Errorf("notice = %q, want generic wording", turnErr.Partial.Response)
	}
}

func TestTurnServiceCircuitOpen(t *testing.T) {
	provider := &scriptedProvider{steps: []scriptedStep{{err: resilience.ErrCircuitOpen}}}
	svc := newTestTurnService(t, &mockStore{}, provider)

	_, err := svc.Run(context.Background(), "alice", conversation.TurnRequest{Message: "hello"})
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable, got %v", err)
	}
}

func TestTurnServiceRoundLimit(t *testing.T) {
	store := &mockStore{}
	// Always proposes another list call; the loop must stop on its own.
	provider := &scriptedProvider{steps: []scriptedStep{
		propose("m", reasoning.ProposedCall{ID: "loop", Name: ToolList, Arguments: json.RawMessage(`{}`)}),
	}}
	svc := newTestTurnService(t, store, provider)

	resp := runTurn(t, svc, "alice", "list forever")

	if len(provider.requests) != maxToolRounds {
		t.Fatalf("expected %d routing rounds, got %d", maxToolRounds, len(provider.requests))
	}
	if len(resp.ToolCalls) != maxToolRounds {
		t.Fatalf("expected %d call records, got %d", maxToolRounds, len(resp.ToolCalls))
	}
	if resp.Response == "" {
		t.Fatal("expected a summarized reply")
	}
}

func TestTurnServiceUnknownConversation(t *testing.T) {
	store := &mockStore{}
	svc := newTestTurnService(t, store, &scriptedProvider{steps: []scriptedStep{reply("never", "m")}})

	missing := int64(99)
	_, err := svc.Run(context.Background(), "alice", conversation.TurnRequest{ConversationID: &missing, Message: "hello"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(store.conversations) != 0 {
		t.Fatal("a missing conversation id must not create a new conversation")
	}
}

func TestTurnServiceForeignConversation(t *testing.T) {
	store := &mockStore{}
	conv, err := store.CreateConversation(context.Background(), "bob")
	if err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	svc := newTestTurnService(t, store, &scriptedProvider{steps: []scriptedStep{reply("never", "m")}})

	_, err = svc.Run(context.Background(), "alice", conversation.TurnRequest{ConversationID: &conv.ID, Message: "hello"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for foreign conversation, got %v", err)
	}
}

func TestTurnServiceHistoryBound(t *testing.T) {
	store := &mockStore{}
	ctx := context.Background()
	conv, err := store.CreateConversation(ctx, "alice")
	if err != nil {
		t.Fatalf("seed conversation: %v", err)
	}
	for i := 1; i <= 30; i++ {
		if _, err := store.CreateMessage(ctx, &conversation.Message{
			ConversationID: conv.ID,
			Role:           conversation.RoleUser,
			Content:        fmt.Sprintf("m%d", i),
		}); err != nil {
			t.Fatalf("seed message %d: %v", i, err)
		}
	}

	provider := &scriptedProvider{steps: []scriptedStep{reply("ok", "m")}}
	svc := newTestTurnService(t, store, provider)

	if _, err := svc.Run(ctx, "alice", conversation.TurnRequest{ConversationID: &conv.ID, Message: "newest"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	history := provider.requests[0].History
	if len(history) != 10 {
		t.Fatalf("expected history of 10, got %d", len(history))
	}
	if history[0].Content != "m21" || history[9].Content != "m30" {
		t.Errorf("history window = %q..%q, want m21..m30", history[0].Content, history[9].Content)
	}
	// The incoming message rides separately, never duplicated into history.
	for _, h := range history {
		if h.Content == "newest" {
			t.Fatal("incoming message leaked into history")
		}
	}
	if provider.requests[0].Message != "newest" {
		t.Errorf("message = %q, want newest", provider.requests[0].Message)
	}
}

func TestTurnServiceHistoryLoadFailure(t *testing.T) {
	store := &mockStore{listRecentErr: errors.New("connection reset")}
	svc := newTestTurnService(t, store, &scriptedProvider{steps: []scriptedStep{reply("never", "m")}})

	_, err := svc.Run(context.Background(), "alice", conversation.TurnRequest{Message: "hello"})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
}

func TestTurnServiceToolStoreFailure(t *testing.T) {
	store := &mockStore{createTaskErr: errors.New("disk full")}
	provider := &scriptedProvider{steps: []scriptedStep{
		propose("m", reasoning.ProposedCall{ID: "c1", Name: ToolAdd, Arguments: json.RawMessage(`{"title":"Doomed"}`)}),
		reply("never reached", "m"),
	}}
	svc := newTestTurnService(t, store, provider)

	_, err := svc.Run(context.Background(), "alice", conversation.TurnRequest{Message: "add doomed"})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
	var turnErr *TurnError
	if !errors.As(err, &turnErr) {
		t.Fatalf("expected *TurnError, got %T", err)
	}
	if !strings.Contains(turnErr.Partial.Response, "couldn't save") {
		t.Errorf("notice = %q, want store wording", turnErr.Partial.Response)
	}
}

func TestTurnServicePersistAssistantFailure(t *testing.T) {
	// First write (user message) succeeds, second (assistant) fails.
	store := &mockStore{createMessageErr: errors.New("down"), createMessageErrOn: 2}
	svc := newTestTurnService(t, store, &scriptedProvider{steps: []scriptedStep{reply("lost reply", "m")}})

	_, err := svc.Run(context.Background(), "alice", conversation.TurnRequest{Message: "hello"})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
	var turnErr *TurnError
	if !errors.As(err, &turnErr) {
		t.Fatalf("expected *TurnError, got %T", err)
	}
	// The assembled response still reaches the caller via Partial.
	if turnErr.Partial == nil || turnErr.Partial.Response != "lost reply" {
		t.Fatalf("partial = %+v, want the assembled reply", turnErr.Partial)
	}
}

func TestTurnServicePublishesEvents(t *testing.T) {
	store := &mockStore{}
	queue := &mockQueue{}
	bc := &mockBroadcaster{}
	svc := newTestTurnService(t, store, &scriptedProvider{steps: []scriptedStep{reply("done", "gpt-test")}})
	svc.SetQueue(queue)
	svc.SetBroadcaster(bc)

	resp := runTurn(t, svc, "alice", "hello")

	if len(queue.published) != 1 {
		t.Fatalf("expected 1 turn event, got %d", len(queue.published))
	}
	p := queue.published[0]
	if p.subject != messagequeue.SubjectChatTurns {
		t.Errorf("subject = %q, want %q", p.subject, messagequeue.SubjectChatTurns)
	}
	if err := messagequeue.Validate(p.subject, p.data); err != nil {
		t.Errorf("published event fails schema validation: %v", err)
	}
	var event messagequeue.TurnEventPayload
	if err := json.Unmarshal(p.data, &event); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if event.OwnerID != "alice" || event.Status != "ok" || event.ConversationID != resp.ConversationID {
		t.Errorf("event = %+v, want ok turn for alice", event)
	}
	if event.Model != "gpt-test" {
		t.Errorf("event model = %q, want gpt-test", event.Model)
	}

	if len(bc.events) != 1 || bc.events[0].eventType != broadcast.EventConversationMessage {
		t.Fatalf("broadcasts = %+v, want one conversation.message", bc.events)
	}
}

func TestTurnServiceQueueFailureDoesNotFailTurn(t *testing.T) {
	svc := newTestTurnService(t, &mockStore{}, &scriptedProvider{steps: []scriptedStep{reply("fine", "m")}})
	svc.SetQueue(&mockQueue{publishErr: errors.New("nats down")})

	resp := runTurn(t, svc, "alice", "hello")
	if resp.Response != "fine" {
		t.Fatalf("response = %q, want fine", resp.Response)
	}
}

func TestSummarizeCalls(t *testing.T) {
	mustMarshal := func(v any) json.RawMessage {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return data
	}

	tests := []struct {
		name  string
		calls []conversation.ToolCall
		want  string
	}{
		{
			name: "add",
			calls: []conversation.ToolCall{{
				ToolName: ToolAdd,
				Result:   mustMarshal(taskSummary{ID: 1, Title: "Buy milk"}),
			}},
			want: `Added "Buy milk" to your list.`,
		},
		{
			name: "empty list",
			calls: []conversation.ToolCall{{
				ToolName: ToolList,
				Result:   mustMarshal([]taskSummary{}),
			}},
			want: "You have no tasks yet.",
		},
		{
			name: "list",
			calls: []conversation.ToolCall{{
				ToolName: ToolList,
				Result: mustMarshal([]taskSummary{
					{ID: 1, Title: "One"},
					{ID: 2, Title: "Two", Completed: true},
				}),
			}},
			want: "Here are your tasks: 1. One (pending), 2. Two (done).",
		},
		{
			name: "complete",
			calls: []conversation.ToolCall{{
				ToolName: ToolComplete,
				Result:   mustMarshal(taskSummary{ID: 3, Title: "Ship it", Completed: true}),
			}},
			want: `Marked "Ship it" as complete.`,
		},
		{
			name: "delete",
			calls: []conversation.ToolCall{{
				ToolName: ToolDelete,
				Result:   json.RawMessage(`{"id":4,"title":"Old"}`),
			}},
			want: `Deleted "Old".`,
		},
		{
			name: "not found",
			calls: []conversation.ToolCall{{
				ToolName: ToolComplete,
				Result:   json.RawMessage(`{"error":"NotFoundError","message":"task 9 not found"}`),
			}},
			want: "I couldn't find that task.",
		},
		{
			name: "validation",
			calls: []conversation.ToolCall{{
				ToolName: ToolAdd,
				Result:   json.RawMessage(`{"error":"ValidationError","message":"title is required"}`),
			}},
			want: "I couldn't do that with the details given.",
		},
		{
			name: "none",
			want: fallbackReply,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := summarizeCalls(tt.calls); got != tt.want {
				t.Fatalf("summary = %q, want %q", got, tt.want)
			}
		})
	}
}
