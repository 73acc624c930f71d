package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

var (
	// ErrEmptyAudio is returned when Play is given no samples.
	ErrEmptyAudio = errors.New("audio data is empty")

	// ErrClosed is returned by a player after Close.
	ErrClosed = errors.New("player is closed")
)

// Player plays one clip at a time. Play replaces whatever is playing.
type Player interface {
	Play(pcm []byte) error
	Stop() error
	IsPlaying() bool
	Close() error
}

// Config describes the PCM format handed to Play.
type Config struct {
	SampleRate int // 44100 or 48000
	Channels   int // 1 or 2
	BufferSize int // bytes
}

// DefaultConfig matches the speech synthesizer output: 44.1kHz mono.
func DefaultConfig() Config {
	return Config{
		SampleRate: 44100,
		Channels:   1,
		BufferSize: 4096,
	}
}

// Validate reports whether oto can play c.
func (c Config) Validate() error {
	if c.SampleRate != 44100 && c.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", c.Channels)
	}
	if c.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}
	return nil
}

// Duration returns how long n bytes of PCM in this format play for.
func (c Config) Duration(n int) time.Duration {
	frame := c.Channels * 2
	if frame == 0 || c.SampleRate == 0 {
		return 0
	}
	return time.Duration(n/frame) * time.Second / time.Duration(c.SampleRate)
}

// OtoPlayer is a Player on top of an oto context. Only one oto context may
// exist per process.
type OtoPlayer struct {
	mu     sync.Mutex
	ctx    *oto.Context
	cur    *oto.Player
	data   []byte // samples backing cur
	closed bool
}

// NewOtoPlayer opens the sound device.
func NewOtoPlayer(cfg Config) (*OtoPlayer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   cfg.Duration(cfg.BufferSize),
	})
	if err != nil {
		return nil, fmt.Errorf("create oto context: %w", err)
	}
	<-ready

	return &OtoPlayer{ctx: ctx}, nil
}

// Play stops the current clip and starts pcm.
func (p *OtoPlayer) Play(pcm []byte) error {
	if len(pcm) == 0 {
		return ErrEmptyAudio
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.stopLocked()

	// oto reads from the slice while playing; keep our own copy alive.
	p.data = append([]byte(nil), pcm...)
	p.cur = p.ctx.NewPlayer(bytes.NewReader(p.data))
	p.cur.Play()
	return nil
}

// Stop halts playback. Stopping an idle player is a no-op.
func (p *OtoPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

// IsPlaying reports whether a clip is still producing sound.
func (p *OtoPlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur != nil && p.cur.IsPlaying()
}

// Close stops playback and suspends the device.
func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.stopLocked()
	p.closed = true
	return p.ctx.Suspend()
}

func (p *OtoPlayer) stopLocked() {
	if p.cur == nil {
		return
	}
	p.cur.Pause()
	_ = p.cur.Close()
	p.cur = nil
	p.data = nil
}

// Lazy opens the real device on first Play, so a process that never speaks
// never touches the sound system.
type Lazy struct {
	cfg  Config
	open func(Config) (Player, error)

	mu     sync.Mutex
	player Player
	err    error
}

// NewLazy returns a Lazy opening an OtoPlayer with cfg.
func NewLazy(cfg Config) *Lazy {
	return &Lazy{
		cfg: cfg,
		open: func(c Config) (Player, error) {
			p, err := NewOtoPlayer(c)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
	}
}

func (l *Lazy) get() (Player, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.player == nil && l.err == nil {
		l.player, l.err = l.open(l.cfg)
	}
	return l.player, l.err
}

// Play opens the device if needed and plays pcm.
func (l *Lazy) Play(pcm []byte) error {
	p, err := l.get()
	if err != nil {
		return err
	}
	return p.Play(pcm)
}

// Stop is a no-op until the device has been opened.
func (l *Lazy) Stop() error {
	l.mu.Lock()
	p := l.player
	l.mu.Unlock()
	if p == nil {
		return nil
	}
	return p.Stop()
}

// IsPlaying implements Player.
func (l *Lazy) IsPlaying() bool {
	l.mu.Lock()
	p := l.player
	l.mu.Unlock()
	return p != nil && p.IsPlaying()
}

// Close implements Player.
func (l *Lazy) Close() error {
	l.mu.Lock()
	p := l.player
	l.mu.Unlock()
	if p == nil {
		return nil
	}
	return p.Close()
}

var (
	_ Player = (*OtoPlayer)(nil)
	_ Player = (*Lazy)(nil)
)
