package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	tcotel "github.com/taskchat/taskchat/internal/adapter/otel"
	"github.com/taskchat/taskchat/internal/config"
	"github.com/taskchat/taskchat/internal/domain"
	"github.com/taskchat/taskchat/internal/domain/conversation"
	"github.com/taskchat/taskchat/internal/port/broadcast"
	"github.com/taskchat/taskchat/internal/port/database"
	"github.com/taskchat/taskchat/internal/port/messagequeue"
	"github.com/taskchat/taskchat/internal/port/reasoning"
	"github.com/taskchat/taskchat/internal/resilience"
)

// maxToolRounds bounds how many times one turn loops back to the reasoning
// provider with tool results before giving up and summarizing what ran.
const maxToolRounds = 5

// fallbackReply is returned when the provider produced neither tool calls
// nor text.
const fallbackReply = "I'm sorry, I couldn't process that request."

// TurnError is a turn-level failure. Partial carries whatever the turn
// assembled before failing, so callers can surface tool calls that already
// mutated the store.
type TurnError struct {
	Err     error
	Partial *conversation.TurnResponse
}

func (e *TurnError) Error() string { return e.Err.Error() }
func (e *TurnError) Unwrap() error { return e.Err }

// TurnService orchestrates one chat turn: resolve the conversation, load
// bounded history, persist the user message, route through the reasoning
// provider, execute proposed tool calls in order, then persist and return
// the assistant reply. Each call is an independent unit of work; the service
// holds no per-conversation state between turns.
type TurnService struct {
	store        database.Store
	provider     reasoning.Provider
	executor     *ToolExecutor
	queue        messagequeue.Queue
	broadcaster  broadcast.Broadcaster
	metrics      *tcotel.Metrics
	pool         *resilience.Pool
	systemPrompt string
	historyLimit int
	timeout      time.Duration
}

// NewTurnService creates a TurnService. Provider may be nil when no backend
// is configured; turns then fail fast with ErrProviderUnavailable instead of
// preventing the server from starting.
func NewTurnService(store database.Store, provider reasoning.Provider, executor *ToolExecutor, chatCfg config.Chat, reasonCfg config.Reasoning) (*TurnService, error) {
	prompt, err := renderSystemPrompt()
	if err != nil {
		return nil, err
	}
	return &TurnService{
		store:        store,
		provider:     provider,
		executor:     executor,
		pool:         resilience.NewPool(int(reasonCfg.MaxConcurrent)),
		systemPrompt: prompt,
		historyLimit: chatCfg.HistoryLimit,
		timeout:      reasonCfg.Timeout,
	}, nil
}

// SetQueue attaches the optional event queue.
func (s *TurnService) SetQueue(q messagequeue.Queue) { s.queue = q }

// SetBroadcaster attaches the optional realtime broadcaster.
func (s *TurnService) SetBroadcaster(b broadcast.Broadcaster) { s.broadcaster = b }

// SetMetrics attaches the optional metric instruments.
func (s *TurnService) SetMetrics(m *tcotel.Metrics) { s.metrics = m }

// Run executes one chat turn for owner. Turn-level failures are returned as
// *TurnError; per-tool validation and not-found failures never fail the
// turn, they are folded into the tool call records instead.
func (s *TurnService) Run(ctx context.Context, owner string, req conversation.TurnRequest) (*conversation.TurnResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("message cannot be empty: %w", domain.ErrValidation)
	}
	if s.provider == nil {
		return nil, &TurnError{Err: fmt.Errorf("no reasoning provider configured: %w", domain.ErrProviderUnavailable)}
	}

	start := time.Now()

	conv, err := s.resolveConversation(ctx, owner, req.ConversationID)
	if err != nil {
		return nil, err
	}

	ctx, span := tcotel.StartTurnSpan(ctx, owner, conv.ID)
	defer span.End()
	if s.metrics != nil {
		s.metrics.TurnsStarted.Add(ctx, 1)
	}

	// History is loaded before the new message is appended, so the bound
	// covers prior messages only and the transcript never duplicates the
	// incoming one.
	history, err := s.store.ListRecentMessages(ctx, conv.ID, s.historyLimit)
	if err != nil {
		return nil, &TurnError{Err: fmt.Errorf("load history: %v: %w", err, domain.ErrStoreUnavailable)}
	}

	if _, err := s.store.CreateMessage(ctx, &conversation.Message{
		ConversationID: conv.ID,
		Role:           conversation.RoleUser,
		Content:        message,
	}); err != nil {
		return nil, &TurnError{Err: fmt.Errorf("append user message: %v: %w", err, domain.ErrStoreUnavailable)}
	}

	calls, reply, model, turnErr := s.routeAndExecute(ctx, owner, history, message)
	if calls == nil {
		calls = []conversation.ToolCall{}
	}

	if turnErr != nil {
		notice := failureNotice(turnErr)
		s.persistAssistantBestEffort(ctx, conv.ID, notice, calls, model)
		span.SetAttributes(attribute.String("turn.status", "failed"))
		s.recordTurnMetrics(ctx, "failed", model, time.Since(start))
		s.publishTurn(ctx, owner, conv.ID, "failed", len(calls), model, time.Since(start))
		return nil, &TurnError{
			Err: turnErr,
			Partial: &conversation.TurnResponse{
				ConversationID: conv.ID,
				Response:       notice,
				ToolCalls:      calls,
			},
		}
	}

	if strings.TrimSpace(reply) == "" {
		reply = summarizeCalls(calls)
	}

	resp := &conversation.TurnResponse{
		ConversationID: conv.ID,
		Response:       reply,
		ToolCalls:      calls,
	}

	if err := s.persistAssistant(ctx, conv.ID, reply, calls, model); err != nil {
		span.SetAttributes(attribute.String("turn.status", "failed"))
		s.recordTurnMetrics(ctx, "failed", model, time.Since(start))
		return nil, &TurnError{
			Err:     fmt.Errorf("persist assistant message: %v: %w", err, domain.ErrStoreUnavailable),
			Partial: resp,
		}
	}

	span.SetAttributes(attribute.String("turn.status", "ok"))
	s.recordTurnMetrics(ctx, "ok", model, time.Since(start))
	s.publishTurn(ctx, owner, conv.ID, "ok", len(calls), model, time.Since(start))
	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(ctx, owner, broadcast.EventConversationMessage, resp)
	}
	return resp, nil
}

// resolveConversation loads the referenced conversation or creates a fresh
// one. A conversation id that does not exist for this owner is a not-found,
// never silently replaced with a new conversation.
func (s *TurnService) resolveConversation(ctx context.Context, owner string, id *int64) (*conversation.Conversation, error) {
	if id == nil {
		conv, err := s.store.CreateConversation(ctx, owner)
		if err != nil {
			return nil, &TurnError{Err: fmt.Errorf("create conversation: %v: %w", err, domain.ErrStoreUnavailable)}
		}
		return conv, nil
	}

	conv, err := s.store.GetConversation(ctx, owner, *id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, &TurnError{Err: fmt.Errorf("get conversation: %v: %w", err, domain.ErrStoreUnavailable)}
	}
	return conv, nil
}

// routeAndExecute runs the routing loop: ask the provider for the next
// action, execute proposed calls in order, feed results back, repeat until
// the provider answers with text. The reasoning deadline spans all provider
// rounds combined; tool executions run on the request context so an issued
// mutation is never cut off by the reasoning budget.
func (s *TurnService) routeAndExecute(ctx context.Context, owner string, history []conversation.Message, message string) ([]conversation.ToolCall, string, string, error) {
	reasonCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		records []conversation.ToolCall
		rounds  []reasoning.Round
		model   string
	)

	for round := 0; round < maxToolRounds; round++ {
		var res *reasoning.Result
		reasonStart := time.Now()
		_, reasonSpan := tcotel.StartReasoningSpan(ctx, s.provider.Name(), model, round)
		err := s.pool.Run(reasonCtx, func() error {
			var rerr error
			res, rerr = s.provider.Route(reasonCtx, reasoning.Request{
				System:  s.systemPrompt,
				History: transcriptHistory(history),
				Message: message,
				Tools:   s.executor.Specs(),
				Rounds:  rounds,
			})
			return rerr
		})
		reasonSpan.End()
		if s.metrics != nil {
			s.metrics.ReasoningDuration.Record(ctx, time.Since(reasonStart).Seconds(), metric.WithAttributes(
				attribute.String("provider", s.provider.Name()),
			))
		}
		if err != nil {
			return records, "", model, s.classifyReasoningErr(ctx, err)
		}
		model = res.Model

		if len(res.Calls) == 0 {
			return records, res.Reply, model, nil
		}

		results := make([]reasoning.CallResult, 0, len(res.Calls))
		for _, call := range res.Calls {
			_, toolSpan := tcotel.StartToolCallSpan(ctx, call.ID, call.Name)
			payload, execErr := s.executor.Execute(ctx, owner, call)
			toolSpan.End()
			if execErr != nil {
				return records, "", model, execErr
			}
			if s.metrics != nil {
				s.metrics.ToolCalls.Add(ctx, 1, metric.WithAttributes(
					attribute.String("tool", call.Name),
				))
			}
			records = append(records, conversation.ToolCall{
				ToolName:  call.Name,
				Arguments: recordArguments(owner, call.Arguments),
				Result:    payload,
			})
			results = append(results, reasoning.CallResult{
				CallID:  call.ID,
				Name:    call.Name,
				Content: string(payload),
			})
		}
		rounds = append(rounds, reasoning.Round{Calls: res.Calls, Results: results})
	}

	slog.Warn("reasoning loop hit round limit", "owner_id", owner, "rounds", maxToolRounds)
	return records, "", model, nil
}

// classifyReasoningErr maps raw routing failures onto the turn-level error
// taxonomy: deadline overruns become timeouts, connectivity and open-circuit
// failures become provider-unavailable, everything else stays a generic
// provider failure.
func (s *TurnService) classifyReasoningErr(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		// The caller went away; keep the context error so nothing is logged
		// as a provider problem.
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("reasoning exceeded %s: %w", s.timeout, domain.ErrReasoningTimeout)
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, domain.ErrProviderUnavailable):
		return fmt.Errorf("reasoning provider: %v: %w", err, domain.ErrProviderUnavailable)
	}
	return fmt.Errorf("reasoning provider: %w", err)
}

func transcriptHistory(history []conversation.Message) []reasoning.HistoryMessage {
	out := make([]reasoning.HistoryMessage, 0, len(history))
	for _, m := range history {
		out = append(out, reasoning.HistoryMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

// recordArguments produces the audited argument payload for a tool call
// record: the provider's arguments plus the owner scope the executor applied.
func recordArguments(owner string, raw json.RawMessage) json.RawMessage {
	args := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			args = map[string]any{"raw": string(raw)}
		}
	}
	args["owner_id"] = owner
	data, err := json.Marshal(args)
	if err != nil {
		return raw
	}
	return data
}

func (s *TurnService) persistAssistant(ctx context.Context, convID int64, content string, calls []conversation.ToolCall, model string) error {
	var meta json.RawMessage
	if len(calls) > 0 {
		if data, err := json.Marshal(calls); err == nil {
			meta = data
		}
	}
	_, err := s.store.CreateMessage(ctx, &conversation.Message{
		ConversationID: convID,
		Role:           conversation.RoleAssistant,
		Content:        content,
		ToolCalls:      meta,
		Model:          model,
	})
	return err
}

func (s *TurnService) persistAssistantBestEffort(ctx context.Context, convID int64, content string, calls []conversation.ToolCall, model string) {
	if err := s.persistAssistant(ctx, convID, content, calls, model); err != nil {
		slog.Warn("failed to persist failure notice", "conversation_id", convID, "error", err)
	}
}

// recordTurnMetrics records the per-turn counter and duration when
// telemetry is wired.
func (s *TurnService) recordTurnMetrics(ctx context.Context, status, model string, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("status", status),
		attribute.String("model", model),
	)
	if status == "ok" {
		s.metrics.TurnsCompleted.Add(ctx, 1, attrs)
	} else {
		s.metrics.TurnsFailed.Add(ctx, 1, attrs)
	}
	s.metrics.TurnDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (s *TurnService) publishTurn(ctx context.Context, owner string, convID int64, status string, toolCalls int, model string, elapsed time.Duration) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(messagequeue.TurnEventPayload{
		OwnerID:        owner,
		ConversationID: convID,
		Status:         status,
		ToolCalls:      toolCalls,
		Model:          model,
		DurationMS:     elapsed.Milliseconds(),
	})
	if err != nil {
		return
	}
	if err := s.queue.Publish(ctx, messagequeue.SubjectChatTurns, data); err != nil {
		slog.Warn("failed to publish turn event", "conversation_id", convID, "error", err)
	}
}

// failureNotice is the assistant-visible text persisted and returned when a
// turn fails; raw error detail never reaches the end user.
func failureNotice(err error) string {
	switch {
	case errors.Is(err, domain.ErrReasoningTimeout):
		return "Sorry, that took too long to process. Please try again."
	case errors.Is(err, domain.ErrProviderUnavailable):
		return "Sorry, the assistant service is unavailable right now."
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "Sorry, I couldn't save your changes. Please try again."
	}
	return "Sorry, something went wrong while processing your request."
}

// summarizeCalls builds the assistant reply from executed tool calls when
// the provider returned no text of its own, one fixed template per tool.
func summarizeCalls(calls []conversation.ToolCall) string {
	if len(calls) == 0 {
		return fallbackReply
	}
	parts := make([]string, 0, len(calls))
	for _, call := range calls {
		parts = append(parts, summarizeCall(call))
	}
	return strings.Join(parts, " ")
}

func summarizeCall(call conversation.ToolCall) string {
	var failure struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(call.Result, &failure); err == nil && failure.Error != "" {
		if failure.Error == errKindNotFound {
			return "I couldn't find that task."
		}
		return "I couldn't do that with the details given."
	}

	var summary taskSummary
	switch call.ToolName {
	case ToolAdd:
		if json.Unmarshal(call.Result, &summary) == nil {
			return fmt.Sprintf("Added %q to your list.", summary.Title)
		}
	case ToolList:
		var tasks []taskSummary
		if json.Unmarshal(call.Result, &tasks) == nil {
			if len(tasks) == 0 {
				return "You have no tasks yet."
			}
			items := make([]string, 0, len(tasks))
			for i, t := range tasks {
				status := "pending"
				if t.Completed {
					status = "done"
				}
				items = append(items, fmt.Sprintf("%d. %s (%s)", i+1, t.Title, status))
			}
			return "Here are your tasks: " + strings.Join(items, ", ") + "."
		}
	case ToolComplete:
		if json.Unmarshal(call.Result, &summary) == nil {
			return fmt.Sprintf("Marked %q as complete.", summary.Title)
		}
	case ToolDelete:
		if json.Unmarshal(call.Result, &summary) == nil {
			return fmt.Sprintf("Deleted %q.", summary.Title)
		}
	case ToolUpdate:
		if json.Unmarshal(call.Result, &summary) == nil {
			return fmt.Sprintf("Updated %q.", summary.Title)
		}
	}
	return "Done."
}
