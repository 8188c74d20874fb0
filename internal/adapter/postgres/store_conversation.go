package postgres

import (
	"context"
	"fmt"

	"github.com/taskchat/taskchat/internal/domain/conversation"
)

const conversationColumns = `id, owner_id, created_at, updated_at`

const messageColumns = `id, conversation_id, role, content, tool_calls, model, created_at`

func scanMessage(row scannable) (conversation.Message, error) {
	var m conversation.Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.ToolCalls, &m.Model, &m.CreatedAt)
	return m, err
}

func (s *Store) CreateConversation(ctx context.Context, owner string) (*conversation.Conversation, error) {
	var c conversation.Conversation
	err := s.pool.QueryRow(ctx,
		`INSERT INTO conversations (owner_id) VALUES ($1)
		 RETURNING `+conversationColumns,
		owner,
	).Scan(&c.ID, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return &c, nil
}

func (s *Store) GetConversation(ctx context.Context, owner string, id int64) (*conversation.Conversation, error) {
	var c conversation.Conversation
	err := s.pool.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1 AND owner_id = $2`,
		id, owner,
	).Scan(&c.ID, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, notFoundWrap(err, "get conversation %d", id)
	}
	return &c, nil
}

func (s *Store) ListConversations(ctx context.Context, owner string) ([]conversation.Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+conversationColumns+` FROM conversations
		 WHERE owner_id = $1 ORDER BY updated_at DESC`,
		owner)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var result []conversation.Conversation
	for rows.Next() {
		var c conversation.Conversation
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		result = append(result, c)
	}
	return orEmpty(result), rows.Err()
}

func (s *Store) DeleteConversation(ctx context.Context, owner string, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM conversations WHERE id = $1 AND owner_id = $2`, id, owner)
	return execExpectOne(tag, err, "delete conversation %d", id)
}

func (s *Store) CreateMessage(ctx context.Context, m *conversation.Message) (*conversation.Message, error) {
	var created conversation.Message
	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (conversation_id, role, content, tool_calls, model)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+messageColumns,
		m.ConversationID, m.Role, m.Content, m.ToolCalls, m.Model,
	).Scan(&created.ID, &created.ConversationID, &created.Role, &created.Content,
		&created.ToolCalls, &created.Model, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	// Bump the conversation so listings sort by last activity.
	_, _ = s.pool.Exec(ctx,
		`UPDATE conversations SET updated_at = now() WHERE id = $1`, m.ConversationID)
	return &created, nil
}

func (s *Store) ListMessages(ctx context.Context, conversationID int64) ([]conversation.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+messageColumns+` FROM messages
		 WHERE conversation_id = $1 ORDER BY id ASC`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var result []conversation.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		result = append(result, m)
	}
	return orEmpty(result), rows.Err()
}

// ListRecentMessages returns the newest limit messages of a conversation in
// chronological order, which is what a reasoning transcript needs.
func (s *Store) ListRecentMessages(ctx context.Context, conversationID int64, limit int) ([]conversation.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+messageColumns+` FROM (
			SELECT `+messageColumns+` FROM messages
			WHERE conversation_id = $1 ORDER BY id DESC LIMIT $2
		 ) recent ORDER BY id ASC`,
		conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}
	defer rows.Close()

	var result []conversation.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		result = append(result, m)
	}
	return orEmpty(result), rows.Err()
}
