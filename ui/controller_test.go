package ui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/lingo/internal/api"
)

// fakeBackend records every request in order and answers with canned
// responses.
type fakeBackend struct {
	mu    sync.Mutex
	calls []fakeCall

	detectResp    *api.DetectResponse
	detectErr     error
	translateResp *api.TranslateResponse
	translateErr  error
	speakResp     *api.SpeakResponse
	speakErr      error
	stopErr       error
	langs         map[string]string
	langsErr      error
}

type fakeCall struct {
	name string
	text string
	lang string
	req  api.TranslateRequest
}

func (f *fakeBackend) record(c fakeCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeBackend) Detect(_ context.Context, text string) (*api.DetectResponse, error) {
	f.record(fakeCall{name: "detect", text: text})
	return f.detectResp, f.detectErr
}

func (f *fakeBackend) Translate(_ context.Context, req api.TranslateRequest) (*api.TranslateResponse, error) {
	f.record(fakeCall{name: "translate", text: req.Text, req: req})
	return f.translateResp, f.translateErr
}

func (f *fakeBackend) Speak(_ context.Context, text, lang string) (*api.SpeakResponse, error) {
	f.record(fakeCall{name: "speak", text: text, lang: lang})
	return f.speakResp, f.speakErr
}

func (f *fakeBackend) StopAudio(_ context.Context) error {
	f.record(fakeCall{name: "stop-audio"})
	return f.stopErr
}

func (f *fakeBackend) Languages(_ context.Context) (map[string]string, error) {
	f.record(fakeCall{name: "languages"})
	return f.langs, f.langsErr
}

func (f *fakeBackend) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.name
	}
	return out
}

func (f *fakeBackend) count(name string) int {
	n := 0
	for _, c := range f.names() {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeBackend) last(name string) (fakeCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].name == name {
			return f.calls[i], true
		}
	}
	return fakeCall{}, false
}

func newTestModel(b Backend) model {
	return newModel(context.Background(), Config{
		Debounce:   time.Millisecond,
		TargetLang: "en",
	}, b)
}

// edit replaces the source buffer the way a keystroke would.
func edit(m *model, text string) tea.Cmd {
	m.source.SetValue(text)
	return m.sourceChanged()
}

// run executes cmd and feeds its message back through Update, returning the
// updated model and the follow-up command.
func run(t *testing.T, m model, cmd tea.Cmd) (model, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	next, follow := m.Update(cmd())
	return next.(model), follow
}

func strPtr(s string) *string { return &s }

func TestBlankSourceNeverHitsNetwork(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		b := &fakeBackend{}
		m := newTestModel(b)
		m.target = "stale"
		m.detectedCode = "es"

		cmd := edit(&m, text)
		if text == "" && cmd != nil {
			t.Errorf("%q: expected no debounce for empty text", text)
		}
		if cmd != nil {
			// Whitespace still debounces, but detection bails out.
			m, cmd = run(t, m, cmd)
			if cmd != nil {
				t.Errorf("%q: expected no detection command", text)
			}
		}

		if len(b.names()) != 0 {
			t.Errorf("%q: expected no requests, got %v", text, b.names())
		}
		if m.target != "" {
			t.Errorf("%q: expected empty target, got %q", text, m.target)
		}
		if m.detectedCode != "" {
			t.Errorf("%q: expected no detected language, got %q", text, m.detectedCode)
		}
		if m.detectedLabel != detectingLabel {
			t.Errorf("%q: expected sentinel label, got %q", text, m.detectedLabel)
		}
	}
}

func TestWhitespaceAfterTranslationClearsState(t *testing.T) {
	b := &fakeBackend{
		detectResp:    &api.DetectResponse{Success: true, Language: &api.Language{Code: "es", Name: "Spanish"}},
		translateResp: &api.TranslateResponse{Success: true, TranslatedText: "hello"},
	}
	m := newTestModel(b)

	m, cmd := run(t, m, edit(&m, " hola"))
	m, cmd = run(t, m, cmd)
	m, _ = run(t, m, cmd)
	if m.target != "hello" || m.detectedCode != "es" {
		t.Fatalf("setup failed: target=%q code=%q", m.target, m.detectedCode)
	}

	m, cmd = run(t, m, edit(&m, "   "))
	if cmd != nil {
		t.Error("expected no detection command for whitespace")
	}
	if m.target != "" || m.detectedCode != "" || m.detectedLabel != detectingLabel {
		t.Errorf("stale state kept: target=%q code=%q label=%q", m.target, m.detectedCode, m.detectedLabel)
	}
	if n := len(b.names()); n != 2 {
		t.Errorf("expected only the first detect and translate, got %v", b.names())
	}

	// Swap is disabled again.
	if cmd := m.swapLanguages(); cmd != nil {
		t.Error("swap should be a no-op without a detected language")
	}
	if m.source.Value() != "   " || m.target != "" {
		t.Errorf("swap moved buffers: source=%q target=%q", m.source.Value(), m.target)
	}
}

func TestClearingSourceResetsState(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m.source.SetValue("hola")
	m.target = "hello"
	m.detectedCode = "es"
	m.detectedLabel = "Spanish"

	if cmd := edit(&m, ""); cmd != nil {
		t.Error("expected no command when the source is cleared")
	}
	if m.target != "" || m.detectedCode != "" || m.detectedLabel != detectingLabel {
		t.Errorf("state not reset: target=%q code=%q label=%q", m.target, m.detectedCode, m.detectedLabel)
	}

	// Clearing again is harmless.
	tag := m.debounceTag
	_ = edit(&m, "")
	if m.debounceTag != tag+1 {
		t.Errorf("expected tag to advance, got %d", m.debounceTag)
	}
}

func TestDebounceCoalescesEdits(t *testing.T) {
	b := &fakeBackend{detectResp: &api.DetectResponse{Success: false}}
	m := newTestModel(b)

	var ticks []tea.Cmd
	for _, text := range []string{"h", "he", "hel", "hell", "hello"} {
		ticks = append(ticks, edit(&m, text))
	}

	var detections []tea.Cmd
	for _, tick := range ticks {
		next, cmd := m.Update(tick())
		m = next.(model)
		if cmd != nil {
			detections = append(detections, cmd)
		}
	}

	if len(detections) != 1 {
		t.Fatalf("expected exactly one detection, got %d", len(detections))
	}
	detections[0]()

	if n := b.count("detect"); n != 1 {
		t.Fatalf("expected 1 detect request, got %d", n)
	}
	if c, _ := b.last("detect"); c.text != "hello" {
		t.Errorf("expected detection of the last edit, got %q", c.text)
	}
}

func TestDebounceWaitsForQuietPeriod(t *testing.T) {
	const d = 30 * time.Millisecond
	start := time.Now()
	msg := debounceCmd(7, d)()
	if elapsed := time.Since(start); elapsed < d {
		t.Errorf("debounce fired after %v, want at least %v", elapsed, d)
	}
	if dm, ok := msg.(debounceMsg); !ok || dm.tag != 7 {
		t.Errorf("unexpected message %#v", msg)
	}
}

func TestKeystrokeSchedulesDebounce(t *testing.T) {
	m := newTestModel(&fakeBackend{})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	m = next.(model)

	if m.source.Value() != "a" {
		t.Fatalf("expected source to be %q, got %q", "a", m.source.Value())
	}
	if m.debounceTag != 1 {
		t.Errorf("expected one debounce to be scheduled, tag=%d", m.debounceTag)
	}
	if cmd == nil {
		t.Error("expected a command batch")
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	m = next.(model)
	if m.debounceTag != 2 {
		t.Errorf("expected the second keystroke to supersede the first, tag=%d", m.debounceTag)
	}

	// A stale tick is ignored.
	if _, cmd := m.Update(debounceMsg{tag: 1}); cmd != nil {
		t.Error("stale debounce tick triggered detection")
	}
}

func TestDetectSuccessChainsTranslation(t *testing.T) {
	b := &fakeBackend{
		detectResp: &api.DetectResponse{
			Success:  true,
			Language: &api.Language{Code: "fr", Name: "French"},
		},
		translateResp: &api.TranslateResponse{Success: true, TranslatedText: "Hello everyone"},
	}
	m := newTestModel(b)
	m.source.SetValue("Bonjour tout le monde")

	m, cmd := run(t, m, m.detectLanguage())
	if m.detectedLabel != "French" || m.detectedCode != "fr" {
		t.Fatalf("unexpected detection state: label=%q code=%q", m.detectedLabel, m.detectedCode)
	}

	m, _ = run(t, m, cmd)
	c, ok := b.last("translate")
	if !ok {
		t.Fatal("expected a translate request")
	}
	if c.req.SourceLang == nil || *c.req.SourceLang != "fr" {
		t.Errorf("expected source_lang fr, got %v", c.req.SourceLang)
	}
	if c.req.TargetLang != "en" {
		t.Errorf("expected target_lang en, got %q", c.req.TargetLang)
	}
	if m.target != "Hello everyone" {
		t.Errorf("unexpected target %q", m.target)
	}
	if m.inflight != 0 {
		t.Errorf("expected no requests in flight, got %d", m.inflight)
	}
}

func TestDetectFailures(t *testing.T) {
	tests := []struct {
		name  string
		resp  *api.DetectResponse
		err   error
		label string
	}{
		{"no language", &api.DetectResponse{Success: true}, nil, unknownLabel},
		{"unsuccessful", &api.DetectResponse{Success: false, Error: "Could not detect language"}, nil, unknownLabel},
		{"network", nil, errors.New("connection refused"), detectErrorLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{detectResp: tt.resp, detectErr: tt.err}
			m := newTestModel(b)
			m.source.SetValue("something")
			m.detectedCode = "de"

			m, cmd := run(t, m, m.detectLanguage())
			if cmd != nil {
				t.Error("expected no translation after a failed detection")
			}
			if m.detectedLabel != tt.label {
				t.Errorf("expected label %q, got %q", tt.label, m.detectedLabel)
			}
			if m.detectedCode != "" {
				t.Errorf("expected detected code to be cleared, got %q", m.detectedCode)
			}
			if b.count("translate") != 0 {
				t.Error("unexpected translate request")
			}
		})
	}
}

func TestTranslateRendering(t *testing.T) {
	tests := []struct {
		name string
		resp *api.TranslateResponse
		err  error
		want string
	}{
		{"success verbatim", &api.TranslateResponse{Success: true, TranslatedText: "  Hola\nmundo "}, nil, "  Hola\nmundo "},
		{"server error", &api.TranslateResponse{Success: false, Error: strPtr("quota exceeded")}, nil, "Translation error: quota exceeded"},
		{"no error field", &api.TranslateResponse{Success: false}, nil, "Translation error: Unknown error"},
		{"empty error field", &api.TranslateResponse{Success: false, Error: strPtr("")}, nil, "Translation error: Unknown error"},
		{"network", nil, errors.New("connection reset"), "Translation service error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{translateResp: tt.resp, translateErr: tt.err}
			m := newTestModel(b)
			m.source.SetValue("hello world")

			m, _ = run(t, m, m.translate())
			if m.target != tt.want {
				t.Errorf("expected target %q, got %q", tt.want, m.target)
			}
		})
	}
}

func TestTranslateWithoutDetectionSendsNullSource(t *testing.T) {
	b := &fakeBackend{translateResp: &api.TranslateResponse{Success: true}}
	m := newTestModel(b)
	m.source.SetValue("hello")

	_, _ = run(t, m, m.translate())
	c, _ := b.last("translate")
	if c.req.SourceLang != nil {
		t.Errorf("expected nil source language, got %q", *c.req.SourceLang)
	}
}

func TestSwapWithoutDetectionIsNoop(t *testing.T) {
	b := &fakeBackend{}
	m := newTestModel(b)
	m.source.SetValue("hello")
	m.target = "hola"

	if cmd := m.swapLanguages(); cmd != nil {
		t.Error("expected no command")
	}
	if m.source.Value() != "hello" || m.target != "hola" {
		t.Errorf("buffers changed: source=%q target=%q", m.source.Value(), m.target)
	}
	if m.selector.Value() != "en" {
		t.Errorf("selector changed to %q", m.selector.Value())
	}
	if len(b.names()) != 0 {
		t.Errorf("unexpected requests %v", b.names())
	}
}

func TestSwapExchangesBuffersAndRedetects(t *testing.T) {
	b := &fakeBackend{detectResp: &api.DetectResponse{
		Success:  true,
		Language: &api.Language{Code: "en", Name: "English"},
	}}
	m := newTestModel(b)
	m.source.SetValue("hola")
	m.target = "hello"
	m.detectedCode = "es"
	m.detectedLabel = "Spanish"

	cmd := m.swapLanguages()
	if m.source.Value() != "hello" || m.target != "hola" {
		t.Fatalf("buffers not swapped: source=%q target=%q", m.source.Value(), m.target)
	}
	if m.selector.Value() != "es" {
		t.Errorf("expected selector on es, got %q", m.selector.Value())
	}
	lang, _ := m.selector.Selected()
	if lang.Name != "Spanish" {
		t.Errorf("expected Spanish option, got %q", lang.Name)
	}

	m, _ = run(t, m, cmd)
	c, ok := b.last("detect")
	if !ok || c.text != "hello" {
		t.Errorf("expected detection of the new source, got %+v", c)
	}
	if m.detectedLabel != "English" {
		t.Errorf("expected English label, got %q", m.detectedLabel)
	}
}

func TestSwapWithUnknownOptionKeepsSelection(t *testing.T) {
	m := newTestModel(&fakeBackend{detectResp: &api.DetectResponse{}})
	m.source.SetValue("text")
	m.target = "texto"
	m.detectedCode = "xx"

	if cmd := m.swapLanguages(); cmd == nil {
		t.Error("expected a detection command")
	}
	if m.selector.Value() != "en" {
		t.Errorf("selection moved to %q", m.selector.Value())
	}
}

func TestSpeakBlankIsNoop(t *testing.T) {
	b := &fakeBackend{}
	m := newTestModel(b)

	for _, text := range []string{"", "   ", "\n"} {
		if cmd := m.speak(text, "en"); cmd != nil {
			t.Errorf("%q: expected no command", text)
		}
	}
	if cmd := m.speakSource(); cmd != nil {
		t.Error("speakSource with empty buffer returned a command")
	}
	if cmd := m.speakTarget(); cmd != nil {
		t.Error("speakTarget with empty buffer returned a command")
	}
	if len(b.names()) != 0 {
		t.Errorf("unexpected requests %v", b.names())
	}
}

func TestSpeakStopsFirst(t *testing.T) {
	tests := []struct {
		name    string
		stopErr error
		resp    *api.SpeakResponse
		err     error
	}{
		{"both succeed", nil, &api.SpeakResponse{Success: true}, nil},
		{"stop fails", errors.New("boom"), &api.SpeakResponse{Success: true}, nil},
		{"speak fails", nil, &api.SpeakResponse{Success: false, Error: strPtr("Failed to generate speech")}, nil},
		{"speak errors", nil, nil, errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{stopErr: tt.stopErr, speakResp: tt.resp, speakErr: tt.err}
			m := newTestModel(b)
			m.source.SetValue("hello")
			m.target = "hola"
			before := m.View()

			m, cmd := run(t, m, m.speakSource())
			if cmd != nil {
				t.Error("expected no follow-up command")
			}

			names := b.names()
			if len(names) != 2 || names[0] != "stop-audio" || names[1] != "speak" {
				t.Fatalf("expected [stop-audio speak], got %v", names)
			}
			c, _ := b.last("speak")
			if c.lang != "en" {
				t.Errorf("expected fallback language en, got %q", c.lang)
			}
			if m.View() != before {
				t.Error("speech result changed the view")
			}
		})
	}
}

func TestSpeakTargetUsesSelectedLanguage(t *testing.T) {
	b := &fakeBackend{speakResp: &api.SpeakResponse{Success: true}}
	m := newTestModel(b)
	m.target = "hola"
	m.selector.selectCode("es")

	_, _ = run(t, m, m.speakTarget())
	c, _ := b.last("speak")
	if c.text != "hola" || c.lang != "es" {
		t.Errorf("unexpected speak request %+v", c)
	}
}

// Overlapping detections are not serialized, so the response that resolves
// last wins even if it belongs to an older request. This is a known source
// of non-determinism and is asserted here on purpose.
func TestOverlappingDetectionsLastResolvedWins(t *testing.T) {
	m := newTestModel(&fakeBackend{translateResp: &api.TranslateResponse{Success: true}})
	m.source.SetValue("newer text")

	older := detectResultMsg{resp: &api.DetectResponse{Success: true, Language: &api.Language{Code: "de", Name: "German"}}}
	newer := detectResultMsg{resp: &api.DetectResponse{Success: true, Language: &api.Language{Code: "fr", Name: "French"}}}

	next, _ := m.Update(newer)
	next, _ = next.(model).Update(older)
	m = next.(model)

	if m.detectedLabel != "German" || m.detectedCode != "de" {
		t.Errorf("expected the last resolved response to win, got %q/%q", m.detectedLabel, m.detectedCode)
	}
}

func TestTargetLanguageChangeRetranslates(t *testing.T) {
	b := &fakeBackend{translateResp: &api.TranslateResponse{Success: true, TranslatedText: "Hallo"}}
	m := newTestModel(b)
	m.source.SetValue("hello")
	m.detectedCode = "en"

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(model)
	if m.focus != focusLanguage {
		t.Fatalf("expected language focus, got %s", m.focus)
	}

	for _, r := range "german" {
		next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(model)
	}
	if m.source.Value() != "hello" {
		t.Fatalf("typing in the selector edited the source: %q", m.source.Value())
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)
	if m.selector.Value() != "de" {
		t.Fatalf("expected de to be selected, got %q", m.selector.Value())
	}

	m, _ = run(t, m, cmd)
	c, _ := b.last("translate")
	if c.req.TargetLang != "de" {
		t.Errorf("expected target_lang de, got %q", c.req.TargetLang)
	}
	if m.target != "Hallo" {
		t.Errorf("unexpected target %q", m.target)
	}
}

func TestLanguagesFromBackend(t *testing.T) {
	b := &fakeBackend{langs: map[string]string{"en": "English", "es": "Spanish", "fr": "French"}}
	m := newTestModel(b)

	m, _ = run(t, m, fetchLanguagesCmd(m.ctx, b))
	if len(m.selector.options) != 3 {
		t.Fatalf("expected 3 options, got %d", len(m.selector.options))
	}
	if m.selector.Value() != "en" {
		t.Errorf("selection lost, got %q", m.selector.Value())
	}

	// A failure keeps the current list.
	b.langsErr = errors.New("not found")
	m, _ = run(t, m, fetchLanguagesCmd(m.ctx, b))
	if len(m.selector.options) != 3 {
		t.Errorf("options replaced after a failure: %d", len(m.selector.options))
	}
}

func TestRetranslateKey(t *testing.T) {
	b := &fakeBackend{translateErr: errors.New("connection reset")}
	m := newTestModel(b)
	m.source.SetValue("hola")
	m.detectedCode = "es"

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	m, _ = run(t, next.(model), cmd)
	if m.target != translationServiceErr {
		t.Fatalf("unexpected target %q", m.target)
	}

	b.translateErr = nil
	b.translateResp = &api.TranslateResponse{Success: true, TranslatedText: "hello"}
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	m, _ = run(t, next.(model), cmd)
	if m.target != "hello" {
		t.Errorf("retry did not render the translation, got %q", m.target)
	}
	if n := b.count("translate"); n != 2 {
		t.Errorf("expected 2 translate requests, got %d", n)
	}
	c, _ := b.last("translate")
	if c.req.SourceLang == nil || *c.req.SourceLang != "es" {
		t.Errorf("expected source_lang es, got %v", c.req.SourceLang)
	}
	if b.count("detect") != 0 {
		t.Error("retranslating should not detect again")
	}
}
