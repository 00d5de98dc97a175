package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Turns            *prometheus.CounterVec
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	HTTPRequests     *prometheus.CounterVec
}

var (
	once   sync.Once
	global *Metrics
)

func Global() *Metrics {
	once.Do(func() {
		global = &Metrics{
			Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "modelstudio",
				Name:      "turns_total",
				Help:      "Chat turns by outcome",
			}, []string{"outcome"}),
			ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "modelstudio",
				Name:      "provider_requests_total",
				Help:      "Provider dispatches by provider tag and outcome",
			}, []string{"provider", "outcome"}),
			ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "modelstudio",
				Name:      "provider_request_duration_seconds",
				Help:      "Latency of outbound provider calls",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			}, []string{"provider"}),
			HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "modelstudio",
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route template and status",
			}, []string{"method", "route", "status"}),
		}
		prometheus.MustRegister(global.Turns, global.ProviderRequests, global.ProviderLatency, global.HTTPRequests)
	})
	return global
}
