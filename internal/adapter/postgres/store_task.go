package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskchat/taskchat/internal/domain/task"
)

const taskColumns = `id, owner_id, title, description, completed, priority, due_date, created_at, updated_at`

func scanTask(row scannable) (task.Task, error) {
	var t task.Task
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Completed,
		&t.Priority, &t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// taskOrderClause maps ListParams onto a whitelisted ORDER BY expression.
// Unknown columns fall back to created_at so user input never reaches SQL.
func taskOrderClause(params task.ListParams) string {
	col := "created_at"
	switch params.SortBy {
	case "title":
		col = "title"
	case "updated_at":
		col = "updated_at"
	case "due_date":
		col = "due_date"
	case "priority":
		col = "CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 WHEN 'low' THEN 2 ELSE 3 END"
	}
	dir := "DESC"
	if strings.EqualFold(params.Order, "asc") {
		dir = "ASC"
	}
	return col + " " + dir
}

// statusClause returns the completed-column predicate for a status filter,
// or an empty string when the filter includes everything.
func statusClause(status task.StatusFilter) string {
	switch status {
	case task.FilterPending:
		return " AND completed = FALSE"
	case task.FilterCompleted:
		return " AND completed = TRUE"
	}
	return ""
}

func (s *Store) CreateTask(ctx context.Context, owner string, req task.CreateRequest) (*task.Task, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (owner_id, title, description, priority, due_date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+taskColumns,
		owner, req.Title, req.Description, req.Priority, req.DueDate)

	t, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &t, nil
}

func (s *Store) GetTask(ctx context.Context, owner string, id int64) (*task.Task, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND owner_id = $2`,
		id, owner)

	t, err := scanTask(row)
	if err != nil {
		return nil, notFoundWrap(err, "get task %d", id)
	}
	return &t, nil
}

func (s *Store) ListTasks(ctx context.Context, owner string, params task.ListParams) ([]task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`
	query += statusClause(params.Status)
	query += ` ORDER BY ` + taskOrderClause(params)

	args := []any{owner}
	if params.Limit > 0 {
		args = append(args, params.Limit, params.Offset)
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return orEmpty(tasks), rows.Err()
}

func (s *Store) CountTasks(ctx context.Context, owner string, status task.StatusFilter) (int, error) {
	query := `SELECT COUNT(*) FROM tasks WHERE owner_id = $1` + statusClause(status)

	var count int
	if err := s.pool.QueryRow(ctx, query, owner).Scan(&count); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}

// UpdateTask applies the non-nil fields of req in a single statement.
// Last write wins; there is no optimistic version check on tasks.
func (s *Store) UpdateTask(ctx context.Context, owner string, id int64, req task.UpdateRequest) (*task.Task, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE tasks SET
			title       = COALESCE($3, title),
			description = COALESCE($4, description),
			completed   = COALESCE($5, completed),
			priority    = COALESCE($6, priority),
			due_date    = COALESCE($7, due_date),
			updated_at  = now()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING `+taskColumns,
		id, owner, req.Title, req.Description, req.Completed, req.Priority, req.DueDate)

	t, err := scanTask(row)
	if err != nil {
		return nil, notFoundWrap(err, "update task %d", id)
	}
	return &t, nil
}

func (s *Store) SetTaskCompleted(ctx context.Context, owner string, id int64, completed bool) (*task.Task, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE tasks SET completed = $3, updated_at = now()
		 WHERE id = $1 AND owner_id = $2
		 RETURNING `+taskColumns,
		id, owner, completed)

	t, err := scanTask(row)
	if err != nil {
		return nil, notFoundWrap(err, "set task %d completed", id)
	}
	return &t, nil
}

// DeleteTask removes the task and returns the deleted row so callers can
// report what was removed.
func (s *Store) DeleteTask(ctx context.Context, owner string, id int64) (*task.Task, error) {
	row := s.pool.QueryRow(ctx,
		`DELETE FROM tasks WHERE id = $1 AND owner_id = $2
		 RETURNING `+taskColumns,
		id, owner)

	t, err := scanTask(row)
	if err != nil {
		return nil, notFoundWrap(err, "delete task %d", id)
	}
	return &t, nil
}
