package audio

import (
	"sync"
)

// MockPlayer records calls instead of producing sound.
type MockPlayer struct {
	mu      sync.Mutex
	plays   [][]byte
	stops   int
	playing bool
	closed  bool

	// PlayErr, when set, is returned by Play.
	PlayErr error
}

// NewMockPlayer returns an idle MockPlayer.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

// Play implements Player.
func (m *MockPlayer) Play(pcm []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if len(pcm) == 0 {
		return ErrEmptyAudio
	}
	if m.PlayErr != nil {
		return m.PlayErr
	}
	m.plays = append(m.plays, append([]byte(nil), pcm...))
	m.playing = true
	return nil
}

// Stop implements Player.
func (m *MockPlayer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	m.playing = false
	return nil
}

// IsPlaying implements Player.
func (m *MockPlayer) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Close implements Player.
func (m *MockPlayer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.playing = false
	return nil
}

// Plays returns a copy of every clip passed to Play.
func (m *MockPlayer) Plays() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.plays...)
}

// Stops returns how many times Stop was called.
func (m *MockPlayer) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

var _ Player = (*MockPlayer)(nil)
