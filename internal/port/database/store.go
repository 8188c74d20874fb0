// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/taskchat/taskchat/internal/domain/conversation"
	"github.com/taskchat/taskchat/internal/domain/task"
	"github.com/taskchat/taskchat/internal/domain/user"
)

// Store is the port interface for database operations. Every task and
// conversation method is scoped by owner: a row belonging to another owner
// behaves exactly like a missing row (domain.ErrNotFound).
type Store interface {
	// Tasks
	CreateTask(ctx context.Context, owner string, req task.CreateRequest) (*task.Task, error)
	GetTask(ctx context.Context, owner string, id int64) (*task.Task, error)
	ListTasks(ctx context.Context, owner string, params task.ListParams) ([]task.Task, error)
	CountTasks(ctx context.Context, owner string, status task.StatusFilter) (int, error)
	UpdateTask(ctx context.Context, owner string, id int64, req task.UpdateRequest) (*task.Task, error)
	SetTaskCompleted(ctx context.Context, owner string, id int64, completed bool) (*task.Task, error)
	DeleteTask(ctx context.Context, owner string, id int64) (*task.Task, error)

	// Conversations
	CreateConversation(ctx context.Context, owner string) (*conversation.Conversation, error)
	GetConversation(ctx context.Context, owner string, id int64) (*conversation.Conversation, error)
	ListConversations(ctx context.Context, owner string) ([]conversation.Conversation, error)
	DeleteConversation(ctx context.Context, owner string, id int64) error

	// Messages
	CreateMessage(ctx context.Context, msg *conversation.Message) (*conversation.Message, error)
	ListMessages(ctx context.Context, conversationID int64) ([]conversation.Message, error)
	ListRecentMessages(ctx context.Context, conversationID int64, limit int) ([]conversation.Message, error)

	// Users
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
}
