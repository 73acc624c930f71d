// Package speech reads text aloud.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// MaxTextSize is the longest text, in bytes, handed to gTTS.
	MaxTextSize = 5000

	// SampleRate of the PCM produced by the synthesizer.
	SampleRate = 44100

	maxMP3Size = 50 * 1024 * 1024
	maxPCMSize = 64 * 1024 * 1024
)

// ErrEmptyText is returned for blank input.
var ErrEmptyText = errors.New("text cannot be empty")

// Synthesizer converts text in lang to 16-bit mono PCM at SampleRate.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// runFunc runs name with args, feeding stdin and returning stdout.
type runFunc func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

// GTTS synthesizes with gtts-cli (MP3 from Google Translate) and converts
// the result to PCM with ffmpeg. No API key is needed but both binaries must
// be on PATH.
type GTTS struct {
	slow    bool
	limiter *rate.Limiter
	run     runFunc

	synthTimeout   time.Duration
	convertTimeout time.Duration
}

// GTTSConfig configures a GTTS synthesizer.
type GTTSConfig struct {
	// Slow speech (gtts-cli --slow)
	Slow bool

	// Requests per minute sent to Google, defaults to 50
	RequestsPerMinute int
}

// NewGTTS returns a rate-limited gTTS synthesizer.
func NewGTTS(cfg GTTSConfig) *GTTS {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 50
	}
	return &GTTS{
		slow:           cfg.Slow,
		limiter:        rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		run:            runCommand,
		synthTimeout:   30 * time.Second,
		convertTimeout: 15 * time.Second,
	}
}

// Synthesize implements Synthesizer.
func (g *GTTS) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if len(text) > MaxTextSize {
		return nil, fmt.Errorf("text too long: %d bytes (max %d)", len(text), MaxTextSize)
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	mp3, err := g.toMP3(ctx, text, gttsLang(lang))
	if err != nil {
		return nil, fmt.Errorf("MP3 generation failed: %w", err)
	}
	pcm, err := g.toPCM(ctx, mp3)
	if err != nil {
		return nil, fmt.Errorf("MP3 to PCM conversion failed: %w", err)
	}
	return pcm, nil
}

func (g *GTTS) toMP3(ctx context.Context, text, lang string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.synthTimeout)
	defer cancel()

	// "-" makes gtts-cli read the text from stdin, which keeps leading
	// dashes in the text from being parsed as flags.
	args := []string{"-", "-l", lang}
	if g.slow {
		args = append(args, "--slow")
	}
	args = append(args, "-o", "-")

	out, err := g.run(ctx, []byte(text), "gtts-cli", args...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("gtts-cli produced no MP3 output")
	}
	if len(out) > maxMP3Size {
		return nil, fmt.Errorf("gtts-cli MP3 output too large: %d bytes", len(out))
	}
	return out, nil
}

func (g *GTTS) toPCM(ctx context.Context, mp3 []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.convertTimeout)
	defer cancel()

	out, err := g.run(ctx, mp3, "ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", fmt.Sprint(SampleRate),
		"-ac", "1",
		"pipe:1",
	)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("ffmpeg produced no PCM output")
	}
	if len(out) > maxPCMSize {
		return nil, fmt.Errorf("ffmpeg PCM output too large: %d bytes", len(out))
	}
	return out, nil
}

// Validate checks that gtts-cli and ffmpeg are installed.
func (g *GTTS) Validate() error {
	if _, err := exec.LookPath("gtts-cli"); err != nil {
		return fmt.Errorf("gtts-cli not found in PATH (install with: pip install gtts): %w", err)
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return nil
}

func runCommand(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.WaitDelay = 100 * time.Millisecond

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s timed out: %w", name, ctx.Err())
		}
		return nil, fmt.Errorf("%s failed: %w, stderr: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// gttsLang maps table codes onto the ones gTTS expects.
func gttsLang(code string) string {
	switch strings.ToLower(code) {
	case "":
		return "en"
	case "zh-cn", "zh":
		return "zh-CN"
	case "zh-tw":
		return "zh-TW"
	case "iw":
		return "he"
	case "jw":
		return "jw"
	default:
		return strings.ToLower(code)
	}
}
