package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/lingo/internal/languages"
)

func testOptions() []languages.Language {
	return []languages.Language{
		{Code: "en", Name: "English"},
		{Code: "fr", Name: "French"},
		{Code: "de", Name: "German"},
		{Code: "es", Name: "Spanish"},
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSelectorInitialValue(t *testing.T) {
	s := newLanguageSelector(testOptions(), "de")
	if s.Value() != "de" {
		t.Errorf("expected de, got %q", s.Value())
	}

	s = newLanguageSelector(testOptions(), "xx")
	if s.Value() != "en" {
		t.Errorf("expected fallback to first option, got %q", s.Value())
	}

	s = newLanguageSelector(nil, "en")
	if s.Value() != "" {
		t.Errorf("expected empty value, got %q", s.Value())
	}
	if _, ok := s.Selected(); ok {
		t.Error("expected no selection")
	}
}

func TestSelectorSelectCode(t *testing.T) {
	opts := append(testOptions(), languages.Language{Code: "es", Name: "Castellano"})
	s := newLanguageSelector(opts, "en")

	if !s.selectCode("es") {
		t.Fatal("expected es to be found")
	}
	if lang, _ := s.Selected(); lang.Name != "Spanish" {
		t.Errorf("expected the first matching option, got %q", lang.Name)
	}

	if s.selectCode("ja") {
		t.Error("expected ja to be missing")
	}
	if s.Value() != "es" {
		t.Errorf("selection moved to %q", s.Value())
	}
}

func TestSelectorNavigation(t *testing.T) {
	s := newLanguageSelector(testOptions(), "en")
	s.focus()

	s.update(tea.KeyMsg{Type: tea.KeyDown})
	s.update(tea.KeyMsg{Type: tea.KeyDown})
	if changed := s.update(tea.KeyMsg{Type: tea.KeyEnter}); !changed {
		t.Error("expected a change")
	}
	if s.Value() != "de" {
		t.Errorf("expected de, got %q", s.Value())
	}

	// Committing the same option is not a change.
	if changed := s.update(tea.KeyMsg{Type: tea.KeyEnter}); changed {
		t.Error("expected no change")
	}

	s.update(tea.KeyMsg{Type: tea.KeyEnd})
	s.update(tea.KeyMsg{Type: tea.KeyDown})
	s.update(tea.KeyMsg{Type: tea.KeyEnter})
	if s.Value() != "es" {
		t.Errorf("expected es, got %q", s.Value())
	}

	s.update(tea.KeyMsg{Type: tea.KeyHome})
	s.update(tea.KeyMsg{Type: tea.KeyUp})
	s.update(tea.KeyMsg{Type: tea.KeyEnter})
	if s.Value() != "en" {
		t.Errorf("expected en, got %q", s.Value())
	}
}

func TestSelectorFilter(t *testing.T) {
	s := newLanguageSelector(testOptions(), "en")
	s.focus()

	for _, r := range "span" {
		s.update(runes(string(r)))
	}
	if s.filter != "span" {
		t.Fatalf("unexpected filter %q", s.filter)
	}
	if len(s.matches) == 0 || s.options[s.matches[0]].Code != "es" {
		t.Fatalf("expected Spanish first, got %v", s.matches)
	}

	s.update(tea.KeyMsg{Type: tea.KeyBackspace})
	if s.filter != "spa" {
		t.Errorf("expected backspace to trim the filter, got %q", s.filter)
	}

	s.update(tea.KeyMsg{Type: tea.KeyEnter})
	if s.Value() != "es" {
		t.Errorf("expected es, got %q", s.Value())
	}
	if s.filter != "" {
		t.Errorf("expected filter reset after commit, got %q", s.filter)
	}
}

func TestSelectorNoMatches(t *testing.T) {
	s := newLanguageSelector(testOptions(), "fr")
	s.focus()
	s.update(runes("zzz"))

	if len(s.matches) != 0 {
		t.Fatalf("expected no matches, got %v", s.matches)
	}
	if changed := s.update(tea.KeyMsg{Type: tea.KeyEnter}); changed {
		t.Error("expected no change without matches")
	}
	if s.Value() != "fr" {
		t.Errorf("selection moved to %q", s.Value())
	}
	if !strings.Contains(s.View(30), "no matches") {
		t.Error("expected a no-matches hint")
	}
}

func TestSelectorSetOptionsKeepsSelection(t *testing.T) {
	s := newLanguageSelector(testOptions(), "fr")
	s.setOptions([]languages.Language{
		{Code: "ja", Name: "Japanese"},
		{Code: "fr", Name: "French"},
	}, s.Value())

	if s.Value() != "fr" {
		t.Errorf("expected fr to stay selected, got %q", s.Value())
	}
	if len(s.matches) != 2 {
		t.Errorf("expected matches to be rebuilt, got %d", len(s.matches))
	}
}

func TestSelectorSummary(t *testing.T) {
	s := newLanguageSelector(testOptions(), "de")
	if got := s.summary(40); got != "German (de)" {
		t.Errorf("unexpected summary %q", got)
	}
	if got := s.summary(6); !strings.HasSuffix(got, ellipsis) {
		t.Errorf("expected truncated summary, got %q", got)
	}
	if got := s.View(40); got != "German (de)" {
		t.Errorf("blurred view should be the summary, got %q", got)
	}
}
