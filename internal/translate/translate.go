// Package translate turns text from one language into another through a
// pluggable Engine, guarded by a circuit breaker and backed by a cache.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/internal/cache"
	"github.com/dgnsrekt/lingo/internal/languages"
	"github.com/sony/gobreaker"
)

// AutoSource asks the engine to work out the source language itself.
const AutoSource = "auto"

var (
	// ErrEmptyText is returned for blank input.
	ErrEmptyText = errors.New("empty text")

	// ErrUnsupportedLanguage is returned for a target outside the table.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrUnavailable is returned while the breaker is open.
	ErrUnavailable = errors.New("translation engine unavailable")
)

// Engine performs a single translation. source may be AutoSource.
type Engine interface {
	Name() string
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Service wraps an Engine with validation, caching and a circuit breaker.
type Service struct {
	engine  Engine
	breaker *gobreaker.CircuitBreaker
	cache   cache.Cache // may be nil
}

// Option configures a Service.
type Option func(*Service)

// WithCache stores translations in c.
func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithBreakerSettings replaces the default breaker settings. The name is
// always the engine's.
func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(s *Service) {
		st.Name = s.engine.Name()
		s.breaker = gobreaker.NewCircuitBreaker(st)
	}
}

// NewService returns a Service around engine. The breaker opens after five
// consecutive failures and tries the engine again after 30 seconds.
func NewService(engine Engine, opts ...Option) *Service {
	s := &Service{engine: engine}
	s.breaker = gobreaker.NewCircuitBreaker(DefaultBreakerSettings(engine.Name()))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultBreakerSettings returns the breaker configuration used by
// NewService.
func DefaultBreakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("translation breaker changed state", "engine", name, "from", from, "to", to)
		},
	}
}

// Engine returns the wrapped engine's name.
func (s *Service) Engine() string { return s.engine.Name() }

// State returns the breaker state.
func (s *Service) State() gobreaker.State { return s.breaker.State() }

// Translate validates the request, consults the cache and calls the engine.
// An empty source means AutoSource.
func (s *Service) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	if target == "" {
		target = languages.DefaultCode
	}
	target = strings.ToLower(target)
	if !languages.Valid(target) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, target)
	}
	if source == "" {
		source = AutoSource
	}

	key := cache.Key("translate", s.engine.Name(), source, target, text)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			log.Debug("translation cache hit", "source", source, "target", target)
			return string(v), nil
		}
	}

	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.engine.Translate(ctx, text, source, target)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return "", err
	}

	translated := out.(string)
	if s.cache != nil {
		if err := s.cache.Put(key, []byte(translated)); err != nil {
			log.Debug("unable to cache translation", "error", err)
		}
	}
	return translated, nil
}
