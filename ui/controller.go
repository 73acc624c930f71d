package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/internal/api"
	"github.com/dgnsrekt/lingo/internal/languages"
)

// Labels shown in the detected-language slot and the target pane.
const (
	detectingLabel        = "Detecting language..."
	unknownLabel          = "Unknown"
	detectErrorLabel      = "Error detecting"
	translationErrorFmt   = "Translation error: "
	unknownErrorMessage   = "Unknown error"
	translationServiceErr = "Translation service error"
)

// sourceChanged runs after every edit of the source buffer. It supersedes
// any pending debounce tick and, for non-empty text, schedules a new one.
func (m *model) sourceChanged() tea.Cmd {
	// Bumping the tag cancels the pending tick: its message will no longer
	// match when it arrives.
	m.debounceTag++

	if m.source.Value() == "" {
		m.resetDetection()
		return nil
	}
	return debounceCmd(m.debounceTag, m.cfg.Debounce)
}

// resetDetection empties the target and puts the detected language back to
// the sentinel, which also disables swap.
func (m *model) resetDetection() {
	m.target = ""
	m.detectedCode = ""
	m.detectedLabel = detectingLabel
	m.detectFailed = false
}

// handleDebounce acts on a debounce tick if it is still the current one.
func (m *model) handleDebounce(msg debounceMsg) tea.Cmd {
	if msg.tag != m.debounceTag {
		return nil
	}
	return m.detectLanguage()
}

// detectLanguage sends the source text for detection. Blank text clears the
// translation and the detected language without touching the network.
func (m *model) detectLanguage() tea.Cmd {
	text := m.source.Value()
	if strings.TrimSpace(text) == "" {
		m.resetDetection()
		return nil
	}
	m.inflight++
	return detectCmd(m.ctx, m.backend, text)
}

// handleDetectResult records the detected language and, when there is one,
// chains into translation. Overlapping responses are not ordered: whichever
// resolves last wins.
func (m *model) handleDetectResult(msg detectResultMsg) tea.Cmd {
	m.inflight = max(m.inflight-1, 0)

	if msg.err != nil {
		log.Error("Error detecting language", "error", msg.err)
		m.detectedLabel = detectErrorLabel
		m.detectedCode = ""
		m.detectFailed = true
		return nil
	}

	if msg.resp == nil || !msg.resp.Success || msg.resp.Language == nil {
		if msg.resp != nil && msg.resp.Error != "" {
			log.Debug("language not detected", "error", msg.resp.Error)
		}
		m.detectedLabel = unknownLabel
		m.detectedCode = ""
		m.detectFailed = true
		return nil
	}

	m.detectedLabel = msg.resp.Language.Name
	m.detectedCode = msg.resp.Language.Code
	m.detectFailed = false
	return m.translate()
}

// translate sends the source text for translation into the selected
// target language.
func (m *model) translate() tea.Cmd {
	text := m.source.Value()
	if strings.TrimSpace(text) == "" {
		m.target = ""
		return nil
	}
	m.inflight++
	return translateCmd(m.ctx, m.backend, api.TranslateRequest{
		Text:       text,
		TargetLang: m.selector.Value(),
		SourceLang: api.StringPtr(m.detectedCode),
	})
}

// handleTranslateResult renders the translation or a readable error.
func (m *model) handleTranslateResult(msg translateResultMsg) tea.Cmd {
	m.inflight = max(m.inflight-1, 0)

	switch {
	case msg.err != nil:
		log.Error("Error translating", "error", msg.err)
		m.target = translationServiceErr
	case msg.resp == nil:
		m.target = translationErrorFmt + unknownErrorMessage
	case msg.resp.Success:
		m.target = msg.resp.TranslatedText
	default:
		reason := msg.resp.ErrorMessage()
		if reason == "" {
			reason = unknownErrorMessage
		}
		m.target = translationErrorFmt + reason
	}
	return nil
}

// swapLanguages exchanges the buffers and points the target selector at the
// previously detected language. Without a detected language it does nothing.
func (m *model) swapLanguages() tea.Cmd {
	if m.detectedCode == "" {
		return nil
	}

	prevSource := m.source.Value()
	m.source.SetValue(m.target)
	m.target = prevSource

	m.selector.selectCode(m.detectedCode)

	return m.detectLanguage()
}

// speak stops current playback and reads text aloud in lang.
func (m *model) speak(text, lang string) tea.Cmd {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if lang == "" {
		lang = languages.DefaultCode
	}
	return speakCmd(m.ctx, m.backend, text, lang)
}

func (m *model) speakSource() tea.Cmd {
	return m.speak(m.source.Value(), m.detectedCode)
}

func (m *model) speakTarget() tea.Cmd {
	return m.speak(m.target, m.selector.Value())
}

// handleSpeakResult only logs; speech problems never change the view.
func (m *model) handleSpeakResult(msg speakResultMsg) tea.Cmd {
	switch {
	case msg.err != nil:
		log.Error("Error with text-to-speech", "error", msg.err)
	case msg.resp != nil && !msg.resp.Success:
		reason := ""
		if msg.resp.Error != nil {
			reason = *msg.resp.Error
		}
		log.Error("TTS error", "error", reason)
	}
	return nil
}

// handleLanguages swaps in the backend's language list, keeping the current
// selection when the new list still has it.
func (m *model) handleLanguages(msg languagesMsg) tea.Cmd {
	if msg.err != nil {
		log.Warn("unable to fetch languages, using built-in list", "error", msg.err)
		return nil
	}
	if len(msg.langs) == 0 {
		return nil
	}
	m.selector.setOptions(languages.SortedFrom(msg.langs), m.selector.Value())
	if m.focus == focusLanguage {
		m.selector.focus()
	}
	return nil
}
