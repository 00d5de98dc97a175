package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL env var is required")
	ErrInvalidContextSize = errors.New("CONTEXT_WINDOW must be > 0")
)

type Config struct {
	HTTP      HTTPConfig
	DB        DBConfig
	Providers ProvidersConfig
	Chat      ChatConfig
	TurnLock  TurnLockConfig
	Log       LogConfig
}

type HTTPConfig struct {
	ListenAddr  string
	AllowOrigin string
	MetricsPath string
	ReadTimeout time.Duration
}

type DBConfig struct {
	Driver      string
	DSN         string
	AutoMigrate bool
}

type ProvidersConfig struct {
	AllowMock bool
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
	Custom    CustomConfig
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Headers map[string]string
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey    string
	BaseURL   string
	Version   string
	MaxTokens int
	Timeout   time.Duration
}

type CustomConfig struct {
	URL          string
	APIKey       string
	Headers      map[string]string
	BodyTemplate string
	Timeout      time.Duration
}

type ChatConfig struct {
	ContextWindow      int
	DefaultTemperature float64
}

type TurnLockConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTP: HTTPConfig{
			ListenAddr:  mustEnv("LISTEN_ADDR", ":8000"),
			AllowOrigin: mustEnv("NEXT_ORIGIN", "http://localhost:3000"),
			MetricsPath: mustEnv("METRICS_PATH", "/metrics"),
			ReadTimeout: mustDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		},
		DB: DBConfig{
			Driver:      strings.ToLower(mustEnv("DB_DRIVER", DriverPostgres)),
			DSN:         mustEnv("DATABASE_URL", ""),
			AutoMigrate: mustBool("AUTO_MIGRATE", true),
		},
		Providers: ProvidersConfig{
			AllowMock: mustBool("ALLOW_MOCK", false),
			OpenAI: OpenAIConfig{
				APIKey:  mustEnv("OPENAI_API_KEY", ""),
				BaseURL: mustEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
				Timeout: mustDuration("OPENAI_TIMEOUT", 30*time.Second),
			},
			Anthropic: AnthropicConfig{
				APIKey:    mustEnv("ANTHROPIC_API_KEY", ""),
				BaseURL:   mustEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
				Version:   mustEnv("ANTHROPIC_VERSION", "2023-06-01"),
				MaxTokens: mustInt("ANTHROPIC_MAX_TOKENS", 512),
				Timeout:   mustDuration("ANTHROPIC_TIMEOUT", 60*time.Second),
			},
			Custom: CustomConfig{
				URL:          mustEnv("CUSTOM_PROVIDER_URL", ""),
				APIKey:       mustEnv("CUSTOM_PROVIDER_API_KEY", ""),
				BodyTemplate: os.Getenv("CUSTOM_PROVIDER_BODY_TEMPLATE"),
				Timeout:      mustDuration("CUSTOM_PROVIDER_TIMEOUT", 60*time.Second),
			},
		},
		Chat: ChatConfig{
			ContextWindow:      mustInt("CONTEXT_WINDOW", 20),
			DefaultTemperature: mustFloat("DEFAULT_TEMPERATURE", 0.7),
		},
		TurnLock: TurnLockConfig{
			Enabled:       mustBool("TURN_LOCK_ENABLED", false),
			RedisAddr:     mustEnv("REDIS_ADDR", "127.0.0.1:6379"),
			RedisPassword: mustEnv("REDIS_PASSWORD", ""),
			RedisDB:       mustInt("REDIS_DB", 0),
			TTL:           mustDuration("TURN_LOCK_TTL", 2*time.Minute),
		},
		Log: LogConfig{
			Level: strings.ToLower(mustEnv("LOG_LEVEL", "info")),
		},
	}

	if cfg.DB.DSN == "" {
		return nil, ErrMissingDatabaseURL
	}
	var err error
	if cfg.Providers.OpenAI.Headers, err = headersEnv("OPENAI_EXTRA_HEADERS"); err != nil {
		return nil, err
	}
	if cfg.Providers.Custom.Headers, err = headersEnv("CUSTOM_PROVIDER_HEADERS"); err != nil {
		return nil, err
	}
	if cfg.Chat.ContextWindow <= 0 {
		return nil, ErrInvalidContextSize
	}
	switch cfg.DB.Driver {
	case DriverPostgres, "pgx":
		cfg.DB.Driver = DriverPostgres
	case DriverSQLite, "sqlite3":
		cfg.DB.Driver = DriverSQLite
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}

	return cfg, nil
}

func mustEnv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func mustInt(key string, def int) int {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func mustFloat(key string, def float64) float64 {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func mustBool(key string, def bool) bool {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func mustDuration(key string, def time.Duration) time.Duration {
	v := mustEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// headersEnv reads a JSON object of extra request headers. Values may reference the
// provider key as {{api_key}}.
func headersEnv(key string) (map[string]string, error) {
	raw := mustEnv(key, "")
	if raw == "" {
		return nil, nil
	}
	var headers map[string]string
	if err := json.Unmarshal([]byte(raw), &headers); err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}
	return headers, nil
}
