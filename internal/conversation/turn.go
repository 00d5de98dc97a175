package conversation

import (
	"context"
	"errors"
	"strings"

	"modelstudio/internal/apperr"
	"modelstudio/internal/storage"
)

type TurnRequest struct {
	ChatID         string
	Content        string
	ModelProfileID *string
}

type TurnResult struct {
	ChatID             string `json:"chat_id"`
	Reply              string `json:"reply"`
	AssistantMessageID string `json:"assistant_message_id"`
}

// PostMessage runs one turn: the user message is stored before the provider is called
// and stays stored if the call fails. The assistant reply is stored only on success.
// Cancelling ctx after the user message is stored does not abort the turn.
func (s *Service) PostMessage(ctx context.Context, req TurnRequest) (TurnResult, error) {
	res, err := s.postMessage(ctx, req)
	s.metrics.Turns.WithLabelValues(turnOutcome(err)).Inc()
	return res, err
}

func (s *Service) postMessage(ctx context.Context, req TurnRequest) (TurnResult, error) {
	if strings.TrimSpace(req.Content) == "" {
		return TurnResult{}, apperr.BadRequest("content must not be empty")
	}

	chat, err := s.chat(ctx, req.ChatID)
	if err != nil {
		return TurnResult{}, err
	}

	profileID := chat.ModelProfileID
	if req.ModelProfileID != nil && *req.ModelProfileID != "" {
		profileID = req.ModelProfileID
	}
	if profileID == nil || *profileID == "" {
		return TurnResult{}, apperr.BadRequest("No model_profile_id provided or linked to chat")
	}
	profile, err := s.profile(ctx, *profileID)
	if err != nil {
		return TurnResult{}, err
	}

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, chat.ID)
		if err != nil {
			return TurnResult{}, apperr.Internal("acquire chat turn lock", err)
		}
		defer release()
	}

	if _, err := s.store.AppendMessage(ctx, chat.ID, storage.RoleUser, req.Content); err != nil {
		return TurnResult{}, s.storeError("store user message", err)
	}
	// Once the user message is stored the turn runs to a reply or a provider error;
	// the provider client timeout bounds it, not the caller.
	ctx = context.WithoutCancel(ctx)

	history, err := s.store.TrailingMessages(ctx, chat.ID, s.contextWindow)
	if err != nil {
		return TurnResult{}, apperr.Internal("load chat history", err)
	}
	messages := Assemble(profile.SystemPrompt, history)

	s.logger.Info().
		Str("chat_id", chat.ID).
		Str("provider", profile.Provider).
		Str("model", profile.BaseModel).
		Int("messages", len(messages)).
		Msg("chat call")

	reply, err := s.gateway.Dispatch(ctx, profile.Provider, profile.BaseModel, messages, s.temperature)
	if err != nil {
		return TurnResult{}, err
	}

	assistant, err := s.store.AppendMessage(ctx, chat.ID, storage.RoleAssistant, reply)
	if err != nil {
		return TurnResult{}, s.storeError("store assistant message", err)
	}

	return TurnResult{
		ChatID:             chat.ID,
		Reply:              reply,
		AssistantMessageID: assistant.ID,
	}, nil
}

func (s *Service) storeError(what string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("Chat not found")
	}
	return apperr.Internal(what, err)
}

func turnOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	switch apperr.KindOf(err) {
	case apperr.KindBadRequest, apperr.KindNotFound:
		return "rejected"
	case apperr.KindProviderError:
		return "provider_error"
	default:
		return "error"
	}
}
