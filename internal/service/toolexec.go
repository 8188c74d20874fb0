package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/taskchat/taskchat/internal/domain"
	"github.com/taskchat/taskchat/internal/domain/task"
	"github.com/taskchat/taskchat/internal/port/reasoning"
)

// Tool names offered to the reasoning provider.
const (
	ToolAdd      = "add"
	ToolList     = "list"
	ToolComplete = "complete"
	ToolDelete   = "delete"
	ToolUpdate   = "update"
)

// Error kinds encoded into per-call result payloads.
const (
	errKindValidation = "ValidationError"
	errKindNotFound   = "NotFoundError"
)

// taskSummary is the compact task shape embedded in tool results.
type taskSummary struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

func summaryOf(t *task.Task) taskSummary {
	return taskSummary{ID: t.ID, Title: t.Title, Completed: t.Completed}
}

// ToolExecutor dispatches tool calls proposed by the reasoning provider onto
// the task service. Validation and not-found failures are folded into the
// call's result payload so a single bad call never aborts the turn; store
// failures are returned as errors and do.
type ToolExecutor struct {
	tasks *TaskService
}

// NewToolExecutor creates a ToolExecutor over the given task service.
func NewToolExecutor(tasks *TaskService) *ToolExecutor {
	return &ToolExecutor{tasks: tasks}
}

// Specs returns the five tool signatures offered to the reasoning provider.
func (e *ToolExecutor) Specs() []reasoning.ToolSpec {
	return []reasoning.ToolSpec{
		{
			Name:        ToolAdd,
			Description: "Add a new task to the user's todo list.",
			Parameters: json.RawMessage(`{"type":"object","properties":{` +
				`"title":{"type":"string","description":"Short task title, at most 255 characters."},` +
				`"description":{"type":"string","description":"Optional longer details."}},` +
				`"required":["title"]}`),
		},
		{
			Name:        ToolList,
			Description: "List the user's tasks, optionally filtered by status.",
			Parameters: json.RawMessage(`{"type":"object","properties":{` +
				`"status":{"type":"string","enum":["all","pending","completed"],` +
				`"description":"Which tasks to return. Defaults to all."}}}`),
		},
		{
			Name:        ToolComplete,
			Description: "Mark a task as completed by its numeric id.",
			Parameters: json.RawMessage(`{"type":"object","properties":{` +
				`"task_id":{"type":"integer","description":"Numeric id of the task."}},` +
				`"required":["task_id"]}`),
		},
		{
			Name:        ToolDelete,
			Description: "Delete a task by its numeric id.",
			Parameters: json.RawMessage(`{"type":"object","properties":{` +
				`"task_id":{"type":"integer","description":"Numeric id of the task."}},` +
				`"required":["task_id"]}`),
		},
		{
			Name:        ToolUpdate,
			Description: "Change the title and/or description of a task.",
			Parameters: json.RawMessage(`{"type":"object","properties":{` +
				`"task_id":{"type":"integer","description":"Numeric id of the task."},` +
				`"title":{"type":"string","description":"New title."},` +
				`"description":{"type":"string","description":"New description."}},` +
				`"required":["task_id"]}`),
		},
	}
}

// Execute runs one proposed call scoped to owner and returns its result
// payload. A nil error means the payload is usable, success or folded
// failure alike. A non-nil error means the store itself failed and the turn
// must abort; it wraps domain.ErrStoreUnavailable.
func (e *ToolExecutor) Execute(ctx context.Context, owner string, call reasoning.ProposedCall) (json.RawMessage, error) {
	payload, err := e.dispatch(ctx, owner, call)
	if err == nil {
		return payload, nil
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return toolErrorPayload(errKindValidation, err), nil
	case errors.Is(err, domain.ErrNotFound):
		return toolErrorPayload(errKindNotFound, err), nil
	}
	return nil, fmt.Errorf("tool %s: %v: %w", call.Name, err, domain.ErrStoreUnavailable)
}

func (e *ToolExecutor) dispatch(ctx context.Context, owner string, call reasoning.ProposedCall) (json.RawMessage, error) {
	switch call.Name {
	case ToolAdd:
		var args struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := unmarshalArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		t, err := e.tasks.Create(ctx, owner, task.CreateRequest{Title: args.Title, Description: args.Description})
		if err != nil {
			return nil, err
		}
		return marshalPayload(summaryOf(t))

	case ToolList:
		var args struct {
			Status string `json:"status"`
		}
		if err := unmarshalArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		filter, err := task.ParseStatusFilter(args.Status)
		if err != nil {
			return nil, err
		}
		result, err := e.tasks.List(ctx, owner, task.ListParams{
			Status: filter,
			SortBy: "created_at",
			Order:  "asc",
		})
		if err != nil {
			return nil, err
		}
		summaries := make([]taskSummary, 0, len(result.Tasks))
		for i := range result.Tasks {
			summaries = append(summaries, summaryOf(&result.Tasks[i]))
		}
		return marshalPayload(summaries)

	case ToolComplete:
		id, err := taskIDArg(call.Arguments)
		if err != nil {
			return nil, err
		}
		t, err := e.tasks.SetCompleted(ctx, owner, id, true)
		if err != nil {
			return nil, err
		}
		return marshalPayload(summaryOf(t))

	case ToolDelete:
		id, err := taskIDArg(call.Arguments)
		if err != nil {
			return nil, err
		}
		t, err := e.tasks.Delete(ctx, owner, id)
		if err != nil {
			return nil, err
		}
		return marshalPayload(struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
		}{ID: t.ID, Title: t.Title})

	case ToolUpdate:
		var args struct {
			TaskID      json.RawMessage `json:"task_id"`
			Title       *string         `json:"title"`
			Description *string         `json:"description"`
		}
		if err := unmarshalArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		id, err := coerceTaskID(args.TaskID)
		if err != nil {
			return nil, err
		}
		t, err := e.tasks.Update(ctx, owner, id, task.UpdateRequest{Title: args.Title, Description: args.Description})
		if err != nil {
			return nil, err
		}
		return marshalPayload(summaryOf(t))
	}

	return nil, fmt.Errorf("unknown tool %q: %w", call.Name, domain.ErrValidation)
}

func unmarshalArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("malformed tool arguments: %w", domain.ErrValidation)
	}
	return nil
}

func taskIDArg(raw json.RawMessage) (int64, error) {
	var args struct {
		TaskID json.RawMessage `json:"task_id"`
	}
	if err := unmarshalArgs(raw, &args); err != nil {
		return 0, err
	}
	return coerceTaskID(args.TaskID)
}

// coerceTaskID accepts a JSON number or a numeric string. Tool arguments
// arrive through a loosely typed calling interface, so "3" and 3 must both
// resolve to task 3.
func coerceTaskID(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("task_id is required: %w", domain.ErrValidation)
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("task_id must be an integer: %w", domain.ErrValidation)
		}
		return n, nil
	}

	return 0, fmt.Errorf("task_id must be an integer: %w", domain.ErrValidation)
}

func marshalPayload(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return data, nil
}

// toolErrorPayload encodes a recoverable tool failure as its result record.
// The sentinel suffix is stripped from the message; the kind field already
// carries it.
func toolErrorPayload(kind string, err error) json.RawMessage {
	msg := err.Error()
	for _, sentinel := range []error{domain.ErrValidation, domain.ErrNotFound} {
		msg = strings.TrimSuffix(msg, ": "+sentinel.Error())
	}
	data, _ := json.Marshal(struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}{Error: kind, Message: msg})
	return data
}
