package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/internal/audio"
	"github.com/dgnsrekt/lingo/internal/cache"
	"github.com/dgnsrekt/lingo/internal/languages"
)

// ErrDisabled is returned by a Speaker built without a synthesizer.
var ErrDisabled = errors.New("speech is disabled")

// Speaker synthesizes text and plays it, one clip at a time.
type Speaker struct {
	synth  Synthesizer
	player audio.Player
	cache  cache.Cache // may be nil

	// serializes Speak so two requests cannot interleave stop and play
	mu sync.Mutex
}

// NewSpeaker returns a Speaker. A nil synth disables speech; Stop still
// works.
func NewSpeaker(synth Synthesizer, player audio.Player, c cache.Cache) *Speaker {
	return &Speaker{synth: synth, player: player, cache: c}
}

// Speak stops the current clip and reads text aloud in lang, which defaults
// to English. It returns once playback has started.
func (s *Speaker) Speak(ctx context.Context, text, lang string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if s.synth == nil {
		return ErrDisabled
	}
	if lang == "" {
		lang = languages.DefaultCode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.player.Stop(); err != nil {
		log.Warn("unable to stop playback", "error", err)
	}

	pcm, err := s.synthesize(ctx, text, lang)
	if err != nil {
		return err
	}
	if err := s.player.Play(pcm); err != nil {
		return fmt.Errorf("play: %w", err)
	}
	log.Debug("speaking", "lang", lang, "bytes", len(pcm))
	return nil
}

// Stop halts playback. It never fails when nothing is playing.
func (s *Speaker) Stop() error {
	return s.player.Stop()
}

// Close stops playback and releases the device.
func (s *Speaker) Close() error {
	return s.player.Close()
}

func (s *Speaker) synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	key := cache.Key("speech", lang, text)
	if s.cache != nil {
		if pcm, ok := s.cache.Get(key); ok {
			return pcm, nil
		}
	}

	pcm, err := s.synth.Synthesize(ctx, text, lang)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Put(key, pcm); err != nil && !errors.Is(err, cache.ErrItemTooLarge) {
			log.Debug("unable to cache speech", "error", err)
		}
	}
	return pcm, nil
}
