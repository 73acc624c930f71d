// Package ui provides the terminal translator.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/internal/languages"
	"github.com/muesli/reflow/wordwrap"
	te "github.com/muesli/termenv"
)

const (
	// DefaultDebounce is the quiet period after the last keystroke before the
	// source text is sent for detection.
	DefaultDebounce = 500 * time.Millisecond

	statusMessageTimeout = time.Second * 3
	ellipsis             = "…"
	sourceCharLimit      = 5000
)

// focusArea is the part of the view receiving key presses.
type focusArea int

const (
	focusSource focusArea = iota
	focusLanguage
)

func (f focusArea) String() string {
	return map[focusArea]string{
		focusSource:   "source text",
		focusLanguage: "target language",
	}[f]
}

// NewProgram returns a new Tea program talking to backend.
func NewProgram(cfg Config, backend Backend) *tea.Program {
	log.Debug(
		"Starting lingo",
		"server", cfg.ServerURL,
		"target", cfg.TargetLang,
		"debounce", cfg.Debounce,
	)

	if !te.HasDarkBackground() {
		lipgloss.SetHasDarkBackground(false)
	}

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(context.Background(), cfg, backend), opts...)
}

type model struct {
	cfg     Config
	ctx     context.Context
	backend Backend
	keys    keyMap

	width  int
	height int
	focus  focusArea

	// Buffers
	source textarea.Model
	target string

	// Detected language of the source buffer; empty code means none
	detectedCode  string
	detectedLabel string
	detectFailed  bool

	selector languageSelector

	// Tag of the only debounce tick allowed to trigger detection
	debounceTag int

	// Requests dispatched but not yet answered
	inflight int

	spinner spinner.Model
	help    help.Model

	statusMessage string
	statusTag     int
}

func newModel(ctx context.Context, cfg Config, backend Backend) model {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.TargetLang == "" {
		cfg.TargetLang = languages.DefaultCode
	}

	ta := textarea.New()
	ta.Placeholder = "Type or paste text to translate"
	ta.ShowLineNumbers = false
	ta.CharLimit = sourceCharLimit
	ta.Prompt = ""
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = subtleStyle

	m := model{
		cfg:           cfg,
		ctx:           ctx,
		backend:       backend,
		keys:          newKeyMap(),
		focus:         focusSource,
		source:        ta,
		detectedLabel: detectingLabel,
		selector:      newLanguageSelector(languages.Sorted(), cfg.TargetLang),
		spinner:       sp,
		help:          help.New(),
	}
	m.resize(80, 24)
	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.spinner.Tick}
	if m.cfg.FetchLanguages {
		cmds = append(cmds, fetchLanguagesCmd(m.ctx, m.backend))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Translate):
			return m, m.translate()
		case key.Matches(msg, m.keys.Swap):
			return m, m.swapLanguages()
		case key.Matches(msg, m.keys.SpeakSource):
			return m, m.speakSource()
		case key.Matches(msg, m.keys.SpeakTarget):
			return m, m.speakTarget()
		case key.Matches(msg, m.keys.Copy):
			return m, m.copyTarget()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.resize(m.width, m.height)
			return m, nil
		case key.Matches(msg, m.keys.Focus):
			return m, m.toggleFocus()
		}

		if m.focus == focusLanguage {
			if m.selector.update(msg) {
				log.Debug("target language changed", "code", m.selector.Value())
				return m, m.translate()
			}
			return m, nil
		}

	case debounceMsg:
		return m, m.handleDebounce(msg)

	case detectResultMsg:
		return m, m.handleDetectResult(msg)

	case translateResultMsg:
		return m, m.handleTranslateResult(msg)

	case speakResultMsg:
		return m, m.handleSpeakResult(msg)

	case languagesMsg:
		return m, m.handleLanguages(msg)

	case statusMsg:
		m.statusTag++
		m.statusMessage = string(msg)
		return m, statusTimeoutCmd(m.statusTag)

	case statusMessageTimeoutMsg:
		if int(msg) == m.statusTag {
			m.statusMessage = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Everything else (keys, paste, cursor blink) belongs to the source
	// buffer. An edit is any change of its value.
	before := m.source.Value()
	var cmd tea.Cmd
	m.source, cmd = m.source.Update(msg)
	cmds = append(cmds, cmd)
	if m.source.Value() != before {
		cmds = append(cmds, m.sourceChanged())
	}

	return m, tea.Batch(cmds...)
}

func (m *model) toggleFocus() tea.Cmd {
	if m.focus == focusSource {
		m.focus = focusLanguage
		m.source.Blur()
		m.selector.focus()
		return nil
	}
	m.focus = focusSource
	m.selector.blur()
	return m.source.Focus()
}

func (m *model) copyTarget() tea.Cmd {
	if strings.TrimSpace(m.target) == "" {
		return nil
	}
	text := m.target
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			log.Warn("unable to copy to clipboard", "error", err)
			return statusMsg("Copy failed")
		}
		return statusMsg("Copied translation")
	}
}

func (m *model) resize(width, height int) {
	m.width = width
	m.height = height

	pane := m.paneWidth()
	m.source.SetWidth(pane)
	m.source.SetHeight(m.paneHeight())
	m.selector.height = max(m.paneHeight()-3, 3)
}

// paneWidth is the inner width of one of the two side-by-side panes.
func (m model) paneWidth() int {
	// 2 borders + 2 padding per pane, 1 column gap
	return max((m.width-1)/2-4, 10)
}

func (m model) paneHeight() int {
	// header, label row, borders, status bar, help
	reserved := 7
	if m.help.ShowAll {
		reserved += 2
	}
	return max(m.height-reserved, 3)
}

func (m model) View() string {
	pw := m.paneWidth()
	ph := m.paneHeight()

	header := logoStyle.Render("Lingo")

	// Source pane
	label := detectedStyle.Render(m.detectedLabel)
	if m.detectFailed {
		label = errorLabelStyle.Render(m.detectedLabel)
	} else if m.detectedLabel == detectingLabel {
		label = subtleStyle.Render(m.detectedLabel)
	}
	sourceStyle := paneStyle
	if m.focus == focusSource {
		sourceStyle = focusedPaneStyle
	}
	left := lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render("From: ")+label,
		sourceStyle.Width(pw+2).Render(m.source.View()),
	)

	// Target pane
	targetStyle := paneStyle
	var body string
	if m.focus == focusLanguage {
		targetStyle = focusedPaneStyle
		body = m.selector.View(pw)
	} else {
		body = wordwrap.String(m.target, pw)
	}
	body = lipgloss.NewStyle().Height(ph).MaxHeight(ph).Render(body)
	right := lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render("To: ")+m.selector.summary(pw-4),
		targetStyle.Width(pw+2).Render(body),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		panes,
		m.statusView(),
		m.help.View(m.keys),
	)
}

func (m model) statusView() string {
	var parts []string
	if m.inflight > 0 {
		parts = append(parts, m.spinner.View()+subtleStyle.Render(" working"))
	}
	if m.statusMessage != "" {
		parts = append(parts, statusStyle.Render(m.statusMessage))
	}
	parts = append(parts, subtleStyle.Render(fmt.Sprintf("editing %s", m.focus)))
	return strings.Join(parts, subtleStyle.Render(" • "))
}
