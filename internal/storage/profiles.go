package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var profileColumns = []string{"id", "name", "provider", "base_model", "system_prompt", "created_at", "updated_at"}

func (s *Store) CreateProfile(ctx context.Context, name, provider, baseModel, systemPrompt string) (ModelProfile, error) {
	now := s.clock.Now()
	p := ModelProfile{
		ID:           newID(),
		Name:         name,
		Provider:     provider,
		BaseModel:    baseModel,
		SystemPrompt: systemPrompt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	q := s.sql.Insert("model_profiles").
		Columns(profileColumns...).
		Values(p.ID, p.Name, p.Provider, p.BaseModel, p.SystemPrompt, p.CreatedAt, p.UpdatedAt)
	if _, err := s.exec(ctx, q, "insert profile"); err != nil {
		return ModelProfile{}, err
	}
	return p, nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (ModelProfile, error) {
	row, err := s.queryRow(ctx, s.sql.Select(profileColumns...).From("model_profiles").Where(sq.Eq{"id": id}), "get profile")
	if err != nil {
		return ModelProfile{}, err
	}
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ModelProfile{}, ErrNotFound
		}
		return ModelProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]ModelProfile, error) {
	rows, err := s.query(ctx, s.sql.Select(profileColumns...).From("model_profiles").OrderBy("updated_at DESC"), "list profiles")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ModelProfile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile rows: %w", err)
	}
	return out, nil
}

// UpdateProfile applies the present fields of patch and refreshes updated_at. An empty
// patch is not a mutation: the stored profile is returned unchanged.
func (s *Store) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (ModelProfile, error) {
	cols := patch.columns()
	if len(cols) == 0 {
		return s.GetProfile(ctx, id)
	}
	q := s.sql.Update("model_profiles").
		SetMap(cols).
		Set("updated_at", s.clock.Now()).
		Where(sq.Eq{"id": id})
	res, err := s.exec(ctx, q, "update profile")
	if err != nil {
		return ModelProfile{}, err
	}
	if err := affectedOrNotFound(res); err != nil {
		return ModelProfile{}, err
	}

	p, err := s.GetProfile(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return ModelProfile{}, ErrVanished
	}
	return p, err
}

// DeleteProfile removes the profile only; chats that reference it keep the dangling id.
func (s *Store) DeleteProfile(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.sql.Delete("model_profiles").Where(sq.Eq{"id": id}), "delete profile")
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func scanProfile(row rowScanner) (ModelProfile, error) {
	var p ModelProfile
	err := row.Scan(&p.ID, &p.Name, &p.Provider, &p.BaseModel, &p.SystemPrompt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
