// Package task defines the Task domain entity and its validation rules.
package task

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/taskchat/taskchat/internal/domain"
)

// Limits on user-supplied task fields.
const (
	MaxTitleLen       = 255
	MaxDescriptionLen = 1000
)

// DefaultPriority is assigned when a task is created without one.
const DefaultPriority = "medium"

// StatusFilter selects which tasks a list operation returns.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterPending   StatusFilter = "pending"
	FilterCompleted StatusFilter = "completed"
)

// ParseStatusFilter validates a raw filter value. Empty means all.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch StatusFilter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterPending:
		return FilterPending, nil
	case FilterCompleted:
		return FilterCompleted, nil
	}
	return "", fmt.Errorf("status must be one of all, pending, completed: %w", domain.ErrValidation)
}

// Task is a single todo item. Every read and write is scoped by OwnerID;
// tasks are never visible across owners.
type Task struct {
	ID          int64      `json:"id"`
	OwnerID     string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateRequest holds the fields needed to create a task.
type CreateRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// UpdateRequest holds a partial update. Nil fields are left unchanged.
type UpdateRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// Empty reports whether the update carries no fields at all.
func (r UpdateRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Completed == nil &&
		r.Priority == nil && r.DueDate == nil
}

// MaxListLimit caps the page size of the REST list endpoint.
const MaxListLimit = 100

// ListParams control the REST list endpoint. The chat tool path uses only
// the Status field.
type ListParams struct {
	Status StatusFilter
	SortBy string // created_at | updated_at | title | priority | due_date
	Order  string // asc | desc
	Limit  int
	Offset int
}

// ListResult is the list endpoint's response shape. FilteredCount is the
// number of tasks actually returned after filter and pagination; TotalCount
// counts all of the owner's tasks regardless of filter.
type ListResult struct {
	Tasks         []Task `json:"tasks"`
	TotalCount    int    `json:"total_count"`
	FilteredCount int    `json:"filtered_count"`
}

// ValidateCreateRequest checks title and description bounds.
func ValidateCreateRequest(req CreateRequest) error {
	if err := validateTitle(req.Title); err != nil {
		return err
	}
	if utf8.RuneCountInString(req.Description) > MaxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters: %w", MaxDescriptionLen, domain.ErrValidation)
	}
	return nil
}

// ValidateUpdateRequest checks that at least one field is supplied and that
// supplied fields are within bounds.
func ValidateUpdateRequest(req UpdateRequest) error {
	if req.Empty() {
		return fmt.Errorf("no fields to update: %w", domain.ErrValidation)
	}
	if req.Title != nil {
		if err := validateTitle(*req.Title); err != nil {
			return err
		}
	}
	if req.Description != nil && utf8.RuneCountInString(*req.Description) > MaxDescriptionLen {
		return fmt.Errorf("description exceeds %d characters: %w", MaxDescriptionLen, domain.ErrValidation)
	}
	return nil
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	// Bounds count characters, not bytes; a multibyte title within the
	// limit must pass.
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return fmt.Errorf("title exceeds %d characters: %w", MaxTitleLen, domain.ErrValidation)
	}
	return nil
}
