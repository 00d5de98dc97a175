package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"modelstudio/internal/conversation"
	"modelstudio/internal/metrics"
	"modelstudio/internal/providers/registry"
)

// ProviderLister reports which provider tags can serve turns right now.
type ProviderLister interface {
	Providers() []registry.Info
}

type Server struct {
	service     *conversation.Service
	providers   ProviderLister
	logger      zerolog.Logger
	metrics     *metrics.Metrics
	allowOrigin string
	metricsPath string
}

type Config struct {
	Service     *conversation.Service
	Providers   ProviderLister
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
	AllowOrigin string
	MetricsPath string
}

func NewServer(cfg Config) *Server {
	m := cfg.Metrics
	if m == nil {
		m = metrics.Global()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	return &Server{
		service:     cfg.Service,
		providers:   cfg.Providers,
		logger:      cfg.Logger,
		metrics:     m,
		allowOrigin: cfg.AllowOrigin,
		metricsPath: cfg.MetricsPath,
	}
}

// Handler returns the routed API wrapped in request logging and CORS.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.observe)

	r.HandleFunc("/model-profiles", s.createProfile).Methods(http.MethodPost)
	r.HandleFunc("/model-profiles", s.listProfiles).Methods(http.MethodGet)
	r.HandleFunc("/model-profiles/{id}", s.getProfile).Methods(http.MethodGet)
	r.HandleFunc("/model-profiles/{id}", s.updateProfile).Methods(http.MethodPut)
	r.HandleFunc("/model-profiles/{id}", s.deleteProfile).Methods(http.MethodDelete)

	r.HandleFunc("/chats", s.createChat).Methods(http.MethodPost)
	r.HandleFunc("/chats", s.listChats).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id}", s.getChat).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id}", s.patchChat).Methods(http.MethodPatch)
	r.HandleFunc("/chats/{id}/messages", s.listMessages).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id}/messages", s.postMessage).Methods(http.MethodPost)

	r.HandleFunc("/providers", s.listProviders).Methods(http.MethodGet)
	r.HandleFunc("/providers/models", s.listModels).Methods(http.MethodGet)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.Handle(s.metricsPath, promhttp.Handler()).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "bad_request", "Method not allowed")
	})

	return handlers.CORS(
		handlers.AllowedOrigins([]string{s.allowOrigin}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)(r)
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		m := httpsnoop.CaptureMetrics(next, w, r)
		s.metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(m.Code)).Inc()
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", m.Code).
			Float64("duration_s", m.Duration.Round(time.Microsecond).Seconds()).
			Msg("http request")
	})
}
