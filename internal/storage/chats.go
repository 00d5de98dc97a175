package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var chatColumns = []string{"id", "title", "model_profile_id", "created_at", "updated_at"}

func (s *Store) CreateChat(ctx context.Context, title, modelProfileID *string) (Chat, error) {
	now := s.clock.Now()
	c := Chat{
		ID:             newID(),
		Title:          title,
		ModelProfileID: modelProfileID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	q := s.sql.Insert("chats").
		Columns(chatColumns...).
		Values(c.ID, c.Title, c.ModelProfileID, c.CreatedAt, c.UpdatedAt)
	if _, err := s.exec(ctx, q, "insert chat"); err != nil {
		return Chat{}, err
	}
	return c, nil
}

func (s *Store) GetChat(ctx context.Context, id string) (Chat, error) {
	row, err := s.queryRow(ctx, s.sql.Select(chatColumns...).From("chats").Where(sq.Eq{"id": id}), "get chat")
	if err != nil {
		return Chat{}, err
	}
	c, err := scanChat(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Chat{}, ErrNotFound
		}
		return Chat{}, fmt.Errorf("get chat: %w", err)
	}
	return c, nil
}

// ListChats returns chats with the most recent activity first.
func (s *Store) ListChats(ctx context.Context) ([]Chat, error) {
	rows, err := s.query(ctx, s.sql.Select(chatColumns...).From("chats").OrderBy("updated_at DESC"), "list chats")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Chat, 0)
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chat row: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat rows: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateChat(ctx context.Context, id string, patch ChatPatch) (Chat, error) {
	cols := patch.columns()
	if len(cols) == 0 {
		return Chat{}, ErrEmptyPatch
	}
	q := s.sql.Update("chats").
		SetMap(cols).
		Set("updated_at", s.clock.Now()).
		Where(sq.Eq{"id": id})
	res, err := s.exec(ctx, q, "update chat")
	if err != nil {
		return Chat{}, err
	}
	if err := affectedOrNotFound(res); err != nil {
		return Chat{}, err
	}

	c, err := s.GetChat(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Chat{}, ErrVanished
	}
	return c, err
}

func scanChat(row rowScanner) (Chat, error) {
	var c Chat
	var title, profileID sql.NullString
	if err := row.Scan(&c.ID, &title, &profileID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return Chat{}, err
	}
	c.Title = nullableString(title)
	c.ModelProfileID = nullableString(profileID)
	return c, nil
}
