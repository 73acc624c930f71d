package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	detections   *prometheus.CounterVec
	translations *prometheus.CounterVec
	speech       *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lingo_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lingo_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"method", "path"},
		),
		detections: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lingo_detections_total",
				Help: "Total number of language detections",
			},
			[]string{"status"},
		),
		translations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lingo_translations_total",
				Help: "Total number of translation requests",
			},
			[]string{"engine", "status"},
		),
		speech: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lingo_speech_requests_total",
				Help: "Total number of text-to-speech requests",
			},
			[]string{"status"},
		),
	}
}
