package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/taskchat/taskchat/internal/domain/task"
	"github.com/taskchat/taskchat/internal/middleware"
)

// sortColumns maps the sort query parameter onto store columns. The API
// keeps the short names the frontend sends.
var sortColumns = map[string]string{
	"created":  "created_at",
	"updated":  "updated_at",
	"title":    "title",
	"priority": "priority",
	"due_date": "due_date",
}

// taskID parses the {task_id} path segment.
func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(urlParam(r, "task_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return 0, false
	}
	return id, true
}

// queryInt parses an integer query parameter, enforcing bounds. A max of 0
// means unbounded above.
func queryInt(w http.ResponseWriter, raw, name string, min, max, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || (max > 0 && v > max) {
		if max > 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be between %d and %d", name, min, max))
		} else {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be at least %d", name, min))
		}
		return 0, false
	}
	return v, true
}

// ListTasks handles GET /api/{user_id}/tasks.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())
	q := r.URL.Query()

	status, err := task.ParseStatusFilter(q.Get("status"))
	if err != nil {
		writeDomainError(w, err, "Task not found")
		return
	}

	sortBy := sortColumns["created"]
	if v := q.Get("sort"); v != "" {
		col, ok := sortColumns[v]
		if !ok {
			writeError(w, http.StatusBadRequest, "sort must be one of created, updated, title, priority, due_date")
			return
		}
		sortBy = col
	}

	order := q.Get("order")
	if order != "" && order != "asc" && order != "desc" {
		writeError(w, http.StatusBadRequest, "order must be asc or desc")
		return
	}

	limit, ok := queryInt(w, q.Get("limit"), "limit", 1, task.MaxListLimit, task.MaxListLimit)
	if !ok {
		return
	}
	offset, ok := queryInt(w, q.Get("offset"), "offset", 0, 0, 0)
	if !ok {
		return
	}

	result, err := h.Tasks.List(r.Context(), owner, task.ListParams{
		Status: status,
		SortBy: sortBy,
		Order:  order,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeDomainError(w, err, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CreateTask handles POST /api/{user_id}/tasks.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())
	req, ok := readJSON[task.CreateRequest](w, r)
	if !ok {
		return
	}
	created, err := h.Tasks.Create(r.Context(), owner, req)
	if err != nil {
		writeDomainError(w, err, "Task not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetTask handles GET /api/{user_id}/tasks/{task_id}.
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	t, err := h.Tasks.Get(r.Context(), owner, id)
	if err != nil {
		writeDomainError(w, err, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// UpdateTask handles PUT /api/{user_id}/tasks/{task_id}.
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	req, ok := readJSON[task.UpdateRequest](w, r)
	if !ok {
		return
	}
	updated, err := h.Tasks.Update(r.Context(), owner, id, req)
	if err != nil {
		writeDomainError(w, err, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// CompleteTask handles PATCH /api/{user_id}/tasks/{task_id}/complete. The
// body names the target state explicitly, so replaying the request is safe.
func (h *Handlers) CompleteTask(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	type completeRequest struct {
		Completed bool `json:"completed"`
	}
	req, ok := readJSON[completeRequest](w, r)
	if !ok {
		return
	}

	updated, err := h.Tasks.SetCompleted(r.Context(), owner, id, req.Completed)
	if err != nil {
		writeDomainError(w, err, "Task not found")
		return
	}

	type completeResponse struct {
		ID        int64     `json:"id"`
		Completed bool      `json:"completed"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	writeJSON(w, http.StatusOK, completeResponse{
		ID:        updated.ID,
		Completed: updated.Completed,
		UpdatedAt: updated.UpdatedAt,
	})
}

// DeleteTask handles DELETE /api/{user_id}/tasks/{task_id}.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	owner := middleware.OwnerFromContext(r.Context())
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	if _, err := h.Tasks.Delete(r.Context(), owner, id); err != nil {
		writeDomainError(w, err, "Task not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
