package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); !errors.Is(err, ErrMissingDatabaseURL) {
		t.Fatalf("expected ErrMissingDatabaseURL, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/studio")
	t.Setenv("ALLOW_MOCK", "")
	t.Setenv("CONTEXT_WINDOW", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("NEXT_ORIGIN", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("TURN_LOCK_ENABLED", "")
	t.Setenv("DEFAULT_TEMPERATURE", "")
	t.Setenv("OPENAI_TIMEOUT", "")
	t.Setenv("ANTHROPIC_TIMEOUT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Chat.ContextWindow != 20 {
		t.Fatalf("expected context window 20, got %d", cfg.Chat.ContextWindow)
	}
	if cfg.Chat.DefaultTemperature != 0.7 {
		t.Fatalf("expected temperature 0.7, got %v", cfg.Chat.DefaultTemperature)
	}
	if cfg.Providers.AllowMock {
		t.Fatalf("mock mode must be off by default")
	}
	if cfg.Providers.OpenAI.Timeout != 30*time.Second || cfg.Providers.Anthropic.Timeout != 60*time.Second {
		t.Fatalf("unexpected provider timeouts: %v / %v", cfg.Providers.OpenAI.Timeout, cfg.Providers.Anthropic.Timeout)
	}
	if cfg.HTTP.AllowOrigin != "http://localhost:3000" {
		t.Fatalf("unexpected origin %q", cfg.HTTP.AllowOrigin)
	}
	if cfg.DB.Driver != DriverPostgres {
		t.Fatalf("expected postgres driver, got %q", cfg.DB.Driver)
	}
	if cfg.TurnLock.Enabled {
		t.Fatalf("turn lock must be off by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:studio.db")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("ALLOW_MOCK", "true")
	t.Setenv("CONTEXT_WINDOW", "5")
	t.Setenv("ANTHROPIC_API_KEY", " sk-ant ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DB.Driver != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %q", cfg.DB.Driver)
	}
	if !cfg.Providers.AllowMock {
		t.Fatalf("expected mock mode on")
	}
	if cfg.Chat.ContextWindow != 5 {
		t.Fatalf("expected context window 5, got %d", cfg.Chat.ContextWindow)
	}
	if cfg.Providers.Anthropic.APIKey != "sk-ant" {
		t.Fatalf("expected trimmed key, got %q", cfg.Providers.Anthropic.APIKey)
	}
}

func TestLoadRejectsBadContextWindow(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/studio")
	t.Setenv("CONTEXT_WINDOW", "0")
	if _, err := Load(); !errors.Is(err, ErrInvalidContextSize) {
		t.Fatalf("expected ErrInvalidContextSize, got %v", err)
	}
}

func TestLoadProviderHeaders(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/studio")
	t.Setenv("CONTEXT_WINDOW", "")
	t.Setenv("OPENAI_EXTRA_HEADERS", `{"OpenAI-Organization":"org-1"}`)
	t.Setenv("CUSTOM_PROVIDER_HEADERS", `{"X-Api-Key":"{{api_key}}"}`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Providers.OpenAI.Headers["OpenAI-Organization"]; got != "org-1" {
		t.Fatalf("unexpected openai headers %v", cfg.Providers.OpenAI.Headers)
	}
	if got := cfg.Providers.Custom.Headers["X-Api-Key"]; got != "{{api_key}}" {
		t.Fatalf("unexpected custom headers %v", cfg.Providers.Custom.Headers)
	}

	t.Setenv("OPENAI_EXTRA_HEADERS", "not json")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "OPENAI_EXTRA_HEADERS") {
		t.Fatalf("expected headers parse error, got %v", err)
	}
}
