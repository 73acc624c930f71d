package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/internal/api"
)

// Backend is the subset of the API client the controller needs.
type Backend interface {
	Detect(ctx context.Context, text string) (*api.DetectResponse, error)
	Translate(ctx context.Context, req api.TranslateRequest) (*api.TranslateResponse, error)
	Speak(ctx context.Context, text, lang string) (*api.SpeakResponse, error)
	StopAudio(ctx context.Context) error
	Languages(ctx context.Context) (map[string]string, error)
}

// Messages

// debounceMsg fires once the source text has been quiet for the debounce
// interval. Only the message carrying the current tag is acted upon.
type debounceMsg struct {
	tag int
}

// detectResultMsg carries the outcome of a detection request.
type detectResultMsg struct {
	resp *api.DetectResponse
	err  error
}

// translateResultMsg carries the outcome of a translation request.
type translateResultMsg struct {
	resp *api.TranslateResponse
	err  error
}

// speakResultMsg carries the outcome of a stop-then-speak sequence.
type speakResultMsg struct {
	stopErr error
	resp    *api.SpeakResponse
	err     error
}

// languagesMsg carries the language list fetched from the backend.
type languagesMsg struct {
	langs map[string]string
	err   error
}

// statusMsg shows a transient message in the status bar.
type statusMsg string

// statusMessageTimeoutMsg clears the status message it was created for.
type statusMessageTimeoutMsg int

// Commands

// debounceCmd schedules a debounceMsg for tag after d.
func debounceCmd(tag int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return debounceMsg{tag: tag}
	})
}

// detectCmd sends the detection request. Requests are never cancelled, so
// a slow response can land after a newer one.
func detectCmd(ctx context.Context, b Backend, text string) tea.Cmd {
	return func() tea.Msg {
		resp, err := b.Detect(ctx, text)
		return detectResultMsg{resp: resp, err: err}
	}
}

// translateCmd sends the translation request.
func translateCmd(ctx context.Context, b Backend, req api.TranslateRequest) tea.Cmd {
	return func() tea.Msg {
		resp, err := b.Translate(ctx, req)
		return translateResultMsg{resp: resp, err: err}
	}
}

// speakCmd stops whatever is playing and then speaks text. The speak
// request goes out even when stopping failed.
func speakCmd(ctx context.Context, b Backend, text, lang string) tea.Cmd {
	return func() tea.Msg {
		stopErr := b.StopAudio(ctx)
		if stopErr != nil {
			log.Warn("unable to stop audio", "error", stopErr)
		}
		resp, err := b.Speak(ctx, text, lang)
		return speakResultMsg{stopErr: stopErr, resp: resp, err: err}
	}
}

// fetchLanguagesCmd loads the target language list.
func fetchLanguagesCmd(ctx context.Context, b Backend) tea.Cmd {
	return func() tea.Msg {
		langs, err := b.Languages(ctx)
		return languagesMsg{langs: langs, err: err}
	}
}

// statusTimeoutCmd clears status message tag after statusMessageTimeout.
func statusTimeoutCmd(tag int) tea.Cmd {
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg(tag)
	})
}
