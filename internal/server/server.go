// Package server implements the lingo HTTP backend: language detection,
// translation and speech behind a small JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/internal/api"
	"github.com/dgnsrekt/lingo/internal/history"
	"github.com/dgnsrekt/lingo/internal/languages"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Detector names the language of a text.
type Detector interface {
	Detect(text string) (languages.Language, error)
}

// Translator translates text. An empty source means auto-detect.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
	Engine() string
}

// Speaker reads text aloud on the server's sound device.
type Speaker interface {
	Speak(ctx context.Context, text, lang string) error
	Stop() error
}

// History records served translations.
type History interface {
	Record(ctx context.Context, e history.Entry) error
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Config holds the server's collaborators. Detector and Translator are
// required; Speaker and History are optional.
type Config struct {
	Detector   Detector
	Translator Translator
	Speaker    Speaker
	History    History

	// Languages offered to clients, defaults to the built-in table
	Languages map[string]string

	// Registry for metrics, defaults to a fresh registry
	Registry *prometheus.Registry
}

// Server is the backend's http.Handler.
type Server struct {
	detector   Detector
	translator Translator
	speaker    Speaker
	history    History
	languages  map[string]string

	metrics *metrics
	handler http.Handler
}

// New builds a Server.
func New(cfg Config) (*Server, error) {
	if cfg.Detector == nil {
		return nil, errors.New("server: detector is required")
	}
	if cfg.Translator == nil {
		return nil, errors.New("server: translator is required")
	}
	if cfg.Languages == nil {
		cfg.Languages = languages.All()
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}

	s := &Server{
		detector:   cfg.Detector,
		translator: cfg.Translator,
		speaker:    cfg.Speaker,
		history:    cfg.History,
		languages:  cfg.Languages,
		metrics:    newMetrics(cfg.Registry),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+api.PathDetect, s.handleDetect)
	mux.HandleFunc("POST "+api.PathTranslate, s.handleTranslate)
	mux.HandleFunc("POST "+api.PathSpeak, s.handleSpeak)
	mux.HandleFunc("POST "+api.PathStopAudio, s.handleStopAudio)
	mux.HandleFunc("GET "+api.PathLanguages, s.handleLanguages)
	if s.history != nil {
		mux.HandleFunc("GET "+api.PathHistory, s.handleHistory)
	}
	mux.HandleFunc("GET "+api.PathHealth, s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))

	s.handler = withCORS(s.withLogging(mux))
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("Starting lingo backend", "addr", addr, "engine", s.translator.Engine())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Info("Shutting down lingo backend")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
