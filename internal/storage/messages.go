package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var messageColumns = []string{"id", "chat_id", "role", "content", "created_at"}

// AppendMessage inserts a message and moves the owning chat's updated_at to the
// message timestamp in the same transaction. A missing chat yields ErrNotFound.
func (s *Store) AppendMessage(ctx context.Context, chatID, role, content string) (Message, error) {
	m := Message{
		ID:        newID(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: s.clock.Now(),
	}

	insertSQL, insertArgs, err := s.sql.Insert("messages").
		Columns(messageColumns...).
		Values(m.ID, m.ChatID, m.Role, m.Content, m.CreatedAt).
		ToSql()
	if err != nil {
		return Message{}, fmt.Errorf("build insert message query: %w", err)
	}
	touchSQL, touchArgs, err := s.sql.Update("chats").
		Set("updated_at", m.CreatedAt).
		Where(sq.Eq{"id": chatID}).
		ToSql()
	if err != nil {
		return Message{}, fmt.Errorf("build touch chat query: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Message{}, fmt.Errorf("begin append message: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, touchSQL, touchArgs...)
	if err != nil {
		return Message{}, fmt.Errorf("touch chat: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return Message{}, err
	}
	if _, err := tx.ExecContext(ctx, insertSQL, insertArgs...); err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Message{}, fmt.Errorf("commit append message: %w", err)
	}
	return m, nil
}

// TrailingMessages returns at most limit of the chat's most recent messages, oldest
// first.
func (s *Store) TrailingMessages(ctx context.Context, chatID string, limit int) ([]Message, error) {
	q := s.sql.Select(messageColumns...).
		From("messages").
		Where(sq.Eq{"chat_id": chatID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(max(limit, 0)))
	out, err := s.scanMessages(ctx, q, "trailing messages")
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// ListMessages returns the first limit messages of the chat in chronological order.
func (s *Store) ListMessages(ctx context.Context, chatID string, limit int) ([]Message, error) {
	q := s.sql.Select(messageColumns...).
		From("messages").
		Where(sq.Eq{"chat_id": chatID}).
		OrderBy("created_at ASC", "id ASC").
		Limit(uint64(max(limit, 0)))
	return s.scanMessages(ctx, q, "list messages")
}

func (s *Store) scanMessages(ctx context.Context, q sq.SelectBuilder, what string) ([]Message, error) {
	rows, err := s.query(ctx, q, what)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}
	return out, nil
}
