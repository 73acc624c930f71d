package ui

import "time"

// Config contains TUI-specific configuration.
type Config struct {
	// Backend base URL
	ServerURL string `env:"LINGO_SERVER"`

	// Initially selected target language
	TargetLang string `env:"LINGO_TARGET_LANG"`

	// Quiet period after the last edit before detection runs
	Debounce time.Duration `env:"LINGO_DEBOUNCE"`

	// Per-request timeout, zero means none
	Timeout time.Duration `env:"LINGO_TIMEOUT"`

	// Fetch the language list from the backend on start
	FetchLanguages bool `env:"LINGO_FETCH_LANGUAGES" envDefault:"true"`

	EnableMouse bool
}
