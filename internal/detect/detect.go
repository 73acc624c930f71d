// Package detect identifies the language of a piece of text.
package detect

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/internal/languages"
	"github.com/pemistahl/lingua-go"
)

// MinLength is the shortest trimmed text, in characters, worth detecting.
const MinLength = 3

var (
	// ErrEmptyText is returned for blank input.
	ErrEmptyText = errors.New("text is empty")

	// ErrUndetectable is returned when no language could be determined.
	ErrUndetectable = errors.New("could not detect language")
)

// Detector wraps a lingua detector. It is safe for concurrent use.
type Detector struct {
	lingua            lingua.LanguageDetector
	minLength         int
	minimumConfidence float64
}

// Option configures a Detector.
type Option func(*options)

type options struct {
	codes       []string
	minDistance float64
	minConf     float64
	preload     bool
}

// WithLanguages restricts detection to the given ISO 639-1 codes. Unknown
// codes are ignored; fewer than two known codes means all languages.
func WithLanguages(codes ...string) Option {
	return func(o *options) { o.codes = codes }
}

// WithMinimumRelativeDistance makes the detector refuse to answer when the
// two most likely languages are too close.
func WithMinimumRelativeDistance(d float64) Option {
	return func(o *options) { o.minDistance = d }
}

// WithMinimumConfidence rejects answers whose confidence is below c.
func WithMinimumConfidence(c float64) Option {
	return func(o *options) { o.minConf = c }
}

// WithPreloadedModels loads every language model up front instead of lazily.
func WithPreloadedModels() Option {
	return func(o *options) { o.preload = true }
}

// New builds a Detector.
func New(opts ...Option) *Detector {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var builder lingua.LanguageDetectorBuilder
	if langs := linguaLanguages(o.codes); len(langs) >= 2 {
		builder = lingua.NewLanguageDetectorBuilder().FromLanguages(langs...)
	} else {
		builder = lingua.NewLanguageDetectorBuilder().FromAllLanguages()
	}
	if o.minDistance > 0 {
		builder = builder.WithMinimumRelativeDistance(o.minDistance)
	}
	if o.preload {
		builder = builder.WithPreloadedLanguageModels()
	}

	return &Detector{
		lingua:            builder.Build(),
		minLength:         MinLength,
		minimumConfidence: o.minConf,
	}
}

// Detect returns the language of text, named from the detector table.
func (d *Detector) Detect(text string) (languages.Language, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return languages.Language{}, ErrEmptyText
	}
	if utf8.RuneCountInString(trimmed) < d.minLength {
		return languages.Language{}, ErrUndetectable
	}

	lang, ok := d.lingua.DetectLanguageOf(trimmed)
	if !ok {
		return languages.Language{}, ErrUndetectable
	}
	if d.minimumConfidence > 0 {
		if c := d.lingua.ComputeLanguageConfidence(trimmed, lang); c < d.minimumConfidence {
			log.Debug("detection below confidence threshold", "language", lang, "confidence", c)
			return languages.Language{}, ErrUndetectable
		}
	}

	return languages.Detected(strings.ToLower(lang.IsoCode639_1().String())), nil
}

func linguaLanguages(codes []string) []lingua.Language {
	if len(codes) == 0 {
		return nil
	}
	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[strings.ToLower(c)] = true
	}
	var out []lingua.Language
	for _, l := range lingua.AllLanguages() {
		if want[strings.ToLower(l.IsoCode639_1().String())] {
			out = append(out, l)
		}
	}
	return out
}
