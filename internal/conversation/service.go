package conversation

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"modelstudio/internal/apperr"
	"modelstudio/internal/metrics"
	"modelstudio/internal/providers"
	"modelstudio/internal/storage"
)

// Dispatcher sends an assembled conversation to a provider tag and returns the reply text.
type Dispatcher interface {
	Dispatch(ctx context.Context, provider, model string, messages []providers.Message, temperature float64) (string, error)
}

// Locker serializes turns on one chat. The returned func releases the lock.
type Locker interface {
	Acquire(ctx context.Context, chatID string) (func(), error)
}

type Service struct {
	store         *storage.Store
	gateway       Dispatcher
	locker        Locker
	contextWindow int
	temperature   float64
	logger        zerolog.Logger
	metrics       *metrics.Metrics
}

type Config struct {
	Store         *storage.Store
	Gateway       Dispatcher
	Locker        Locker
	ContextWindow int
	Temperature   float64
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
}

func NewService(cfg Config) *Service {
	m := cfg.Metrics
	if m == nil {
		m = metrics.Global()
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = 20
	}
	return &Service{
		store:         cfg.Store,
		gateway:       cfg.Gateway,
		locker:        cfg.Locker,
		contextWindow: cfg.ContextWindow,
		temperature:   cfg.Temperature,
		logger:        cfg.Logger,
		metrics:       m,
	}
}

func (s *Service) chat(ctx context.Context, id string) (storage.Chat, error) {
	c, err := s.store.GetChat(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.Chat{}, apperr.NotFound("Chat not found")
	}
	if err != nil {
		return storage.Chat{}, apperr.Internal("load chat", err)
	}
	return c, nil
}

func (s *Service) profile(ctx context.Context, id string) (storage.ModelProfile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.ModelProfile{}, apperr.NotFound("Model profile not found")
	}
	if err != nil {
		return storage.ModelProfile{}, apperr.Internal("load model profile", err)
	}
	return p, nil
}
