package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/taskchat/taskchat/internal/domain/task"
	"github.com/taskchat/taskchat/internal/port/broadcast"
	"github.com/taskchat/taskchat/internal/port/database"
	"github.com/taskchat/taskchat/internal/port/messagequeue"
)

// TaskService handles task CRUD for the REST API, the chat tools and the
// MCP server. Queue and broadcaster may be nil; events are then skipped.
type TaskService struct {
	store       database.Store
	queue       messagequeue.Queue
	broadcaster broadcast.Broadcaster
}

// NewTaskService creates a new TaskService.
func NewTaskService(store database.Store, queue messagequeue.Queue, broadcaster broadcast.Broadcaster) *TaskService {
	return &TaskService{store: store, queue: queue, broadcaster: broadcaster}
}

// List returns one page of the owner's tasks plus total and returned counts.
func (s *TaskService) List(ctx context.Context, owner string, params task.ListParams) (*task.ListResult, error) {
	tasks, err := s.store.ListTasks(ctx, owner, params)
	if err != nil {
		return nil, err
	}

	total, err := s.store.CountTasks(ctx, owner, task.FilterAll)
	if err != nil {
		return nil, err
	}

	return &task.ListResult{
		Tasks:         tasks,
		TotalCount:    total,
		FilteredCount: len(tasks),
	}, nil
}

// Get returns one task by id, scoped to the owner.
func (s *TaskService) Get(ctx context.Context, owner string, id int64) (*task.Task, error) {
	return s.store.GetTask(ctx, owner, id)
}

// Create validates the request and stores a new task.
func (s *TaskService) Create(ctx context.Context, owner string, req task.CreateRequest) (*task.Task, error) {
	if err := task.ValidateCreateRequest(req); err != nil {
		return nil, err
	}
	if req.Priority == "" {
		req.Priority = task.DefaultPriority
	}

	t, err := s.store.CreateTask(ctx, owner, req)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, "created", t)
	return t, nil
}

// Update applies a partial update to a task.
func (s *TaskService) Update(ctx context.Context, owner string, id int64, req task.UpdateRequest) (*task.Task, error) {
	if err := task.ValidateUpdateRequest(req); err != nil {
		return nil, err
	}

	t, err := s.store.UpdateTask(ctx, owner, id, req)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, "updated", t)
	return t, nil
}

// SetCompleted marks a task complete or reopens it.
func (s *TaskService) SetCompleted(ctx context.Context, owner string, id int64, completed bool) (*task.Task, error) {
	t, err := s.store.SetTaskCompleted(ctx, owner, id, completed)
	if err != nil {
		return nil, err
	}
	action := "completed"
	if !completed {
		action = "reopened"
	}
	s.publishEvent(ctx, action, t)
	return t, nil
}

// Delete removes a task and returns what was removed.
func (s *TaskService) Delete(ctx context.Context, owner string, id int64) (*task.Task, error) {
	t, err := s.store.DeleteTask(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, "deleted", t)
	return t, nil
}

// publishEvent fans the mutation out to the queue and websocket clients.
// Failures are logged, never returned; the mutation is already committed.
func (s *TaskService) publishEvent(ctx context.Context, action string, t *task.Task) {
	event := messagequeue.TaskEventPayload{Action: action, Task: t}

	if s.queue != nil {
		data, err := json.Marshal(event)
		if err == nil {
			if err := s.queue.Publish(ctx, messagequeue.SubjectTaskEvents, data); err != nil {
				slog.Warn("failed to publish task event",
					"action", action, "task_id", t.ID, "error", err)
			}
		}
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(ctx, t.OwnerID, broadcast.EventTaskChanged, event)
	}
}
