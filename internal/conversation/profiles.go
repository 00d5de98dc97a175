package conversation

import (
	"context"
	"errors"
	"strings"

	"modelstudio/internal/apperr"
	"modelstudio/internal/storage"
)

type ProfileInput struct {
	Name         string
	Provider     string
	BaseModel    string
	SystemPrompt string
}

func (in ProfileInput) validate() error {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.Provider) == "" {
		missing = append(missing, "provider")
	}
	if strings.TrimSpace(in.BaseModel) == "" {
		missing = append(missing, "base_model")
	}
	if len(missing) > 0 {
		return apperr.BadRequest("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// CreateProfile stores a new profile. Provider and model are not checked against the
// catalog.
func (s *Service) CreateProfile(ctx context.Context, in ProfileInput) (storage.ModelProfile, error) {
	if err := in.validate(); err != nil {
		return storage.ModelProfile{}, err
	}
	p, err := s.store.CreateProfile(ctx, in.Name, in.Provider, in.BaseModel, in.SystemPrompt)
	if err != nil {
		return storage.ModelProfile{}, apperr.Internal("create model profile", err)
	}
	return p, nil
}

func (s *Service) GetProfile(ctx context.Context, id string) (storage.ModelProfile, error) {
	return s.profile(ctx, id)
}

func (s *Service) ListProfiles(ctx context.Context) ([]storage.ModelProfile, error) {
	out, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, apperr.Internal("list model profiles", err)
	}
	return out, nil
}

// UpdateProfile applies the fields present in patch. An empty patch returns the
// profile unchanged.
func (s *Service) UpdateProfile(ctx context.Context, id string, patch storage.ProfilePatch) (storage.ModelProfile, error) {
	for field, v := range map[string]*string{"name": patch.Name, "provider": patch.Provider, "base_model": patch.BaseModel} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return storage.ModelProfile{}, apperr.BadRequest("%s must not be empty", field)
		}
	}
	p, err := s.store.UpdateProfile(ctx, id, patch)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return storage.ModelProfile{}, apperr.NotFound("Model profile not found")
	case errors.Is(err, storage.ErrVanished):
		return storage.ModelProfile{}, apperr.Internal("Model profile vanished during update", err)
	case err != nil:
		return storage.ModelProfile{}, apperr.Internal("update model profile", err)
	}
	return p, nil
}

func (s *Service) DeleteProfile(ctx context.Context, id string) error {
	err := s.store.DeleteProfile(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("Model profile not found")
	}
	if err != nil {
		return apperr.Internal("delete model profile", err)
	}
	return nil
}
