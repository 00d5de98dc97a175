package conversation

import (
	"context"
	"errors"

	"modelstudio/internal/apperr"
	"modelstudio/internal/storage"
)

// CreateChat stores a new chat. A given profile id must refer to an existing profile.
func (s *Service) CreateChat(ctx context.Context, title, modelProfileID *string) (storage.Chat, error) {
	if modelProfileID != nil {
		if _, err := s.profile(ctx, *modelProfileID); err != nil {
			return storage.Chat{}, err
		}
	}
	c, err := s.store.CreateChat(ctx, title, modelProfileID)
	if err != nil {
		return storage.Chat{}, apperr.Internal("create chat", err)
	}
	return c, nil
}

func (s *Service) GetChat(ctx context.Context, id string) (storage.Chat, error) {
	return s.chat(ctx, id)
}

func (s *Service) ListChats(ctx context.Context) ([]storage.Chat, error) {
	out, err := s.store.ListChats(ctx)
	if err != nil {
		return nil, apperr.Internal("list chats", err)
	}
	return out, nil
}

// UpdateChat validates the profile reference before anything is written, so a bad
// profile id leaves the chat untouched.
func (s *Service) UpdateChat(ctx context.Context, id string, patch storage.ChatPatch) (storage.Chat, error) {
	if patch.Empty() {
		return storage.Chat{}, apperr.BadRequest("No updatable fields provided")
	}
	if patch.ModelProfileID != nil {
		if _, err := s.profile(ctx, *patch.ModelProfileID); err != nil {
			return storage.Chat{}, err
		}
	}
	c, err := s.store.UpdateChat(ctx, id, patch)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return storage.Chat{}, apperr.NotFound("Chat not found")
	case errors.Is(err, storage.ErrVanished):
		return storage.Chat{}, apperr.Internal("Chat vanished during update", err)
	case err != nil:
		return storage.Chat{}, apperr.Internal("update chat", err)
	}
	return c, nil
}

// Messages returns up to limit messages of a chat, oldest first.
func (s *Service) Messages(ctx context.Context, chatID string, limit int) ([]storage.Message, error) {
	if _, err := s.chat(ctx, chatID); err != nil {
		return nil, err
	}
	out, err := s.store.ListMessages(ctx, chatID, limit)
	if err != nil {
		return nil, apperr.Internal("list messages", err)
	}
	return out, nil
}
