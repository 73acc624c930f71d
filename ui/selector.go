package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/lingo/internal/languages"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/sahilm/fuzzy"
)

// languageOptions adapts a language slice to fuzzy.Source.
type languageOptions []languages.Language

func (o languageOptions) String(i int) string { return o[i].Name + " " + o[i].Code }
func (o languageOptions) Len() int            { return len(o) }

// languageSelector is the target-language select control. Options carry
// language codes as values; typing narrows the list with a fuzzy filter.
type languageSelector struct {
	options  languageOptions
	selected int // index into options

	// Filtering state, only meaningful while focused
	filter  string
	matches []int // indices into options, in display order
	cursor  int   // index into matches

	focused bool
	height  int
}

func newLanguageSelector(opts []languages.Language, initial string) languageSelector {
	s := languageSelector{height: 8}
	s.setOptions(opts, initial)
	return s
}

// setOptions replaces the option list, keeping code selected when present.
func (s *languageSelector) setOptions(opts []languages.Language, code string) {
	s.options = languageOptions(opts)
	s.selected = 0
	s.selectCode(code)
	s.resetFilter()
}

// Value returns the code of the selected option.
func (s languageSelector) Value() string {
	if len(s.options) == 0 {
		return ""
	}
	return s.options[s.selected].Code
}

// Selected returns the selected option.
func (s languageSelector) Selected() (languages.Language, bool) {
	if len(s.options) == 0 {
		return languages.Language{}, false
	}
	return s.options[s.selected], true
}

// selectCode moves the selection to the first option whose value equals
// code. Without a match the selection is left alone.
func (s *languageSelector) selectCode(code string) bool {
	for i, opt := range s.options {
		if opt.Code == code {
			s.selected = i
			return true
		}
	}
	return false
}

func (s *languageSelector) focus() {
	s.focused = true
	s.resetFilter()
}

func (s *languageSelector) blur() {
	s.focused = false
	s.resetFilter()
}

func (s *languageSelector) resetFilter() {
	s.filter = ""
	s.matches = make([]int, len(s.options))
	for i := range s.options {
		s.matches[i] = i
	}
	s.cursor = s.selected
}

func (s *languageSelector) applyFilter() {
	if s.filter == "" {
		s.resetFilter()
		return
	}
	found := fuzzy.FindFrom(s.filter, s.options)
	s.matches = s.matches[:0]
	for _, m := range found {
		s.matches = append(s.matches, m.Index)
	}
	s.cursor = 0
}

// update handles a key press while the selector is focused. It reports
// whether the selected language changed.
func (s *languageSelector) update(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "up", "ctrl+p":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "ctrl+n":
		if s.cursor < len(s.matches)-1 {
			s.cursor++
		}
	case "home":
		s.cursor = 0
	case "end":
		s.cursor = max(len(s.matches)-1, 0)
	case "backspace":
		if s.filter != "" {
			r := []rune(s.filter)
			s.filter = string(r[:len(r)-1])
			s.applyFilter()
		}
	case "enter":
		if len(s.matches) == 0 {
			return false
		}
		prev := s.selected
		s.selected = s.matches[s.cursor]
		s.resetFilter()
		return s.selected != prev
	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			s.filter += string(msg.Runes)
			s.applyFilter()
		}
	}
	return false
}

// summary renders the selected language on a single line.
func (s languageSelector) summary(width int) string {
	lang, ok := s.Selected()
	if !ok {
		return "no languages"
	}
	text := fmt.Sprintf("%s (%s)", lang.Name, lang.Code)
	return truncate.StringWithTail(text, uint(max(width, 1)), ellipsis) //nolint:gosec
}

// View renders the open list around the cursor.
func (s languageSelector) View(width int) string {
	if !s.focused {
		return s.summary(width)
	}

	var b strings.Builder
	b.WriteString(selectorPromptStyle.Render("> " + s.filter))
	b.WriteRune('\n')

	if len(s.matches) == 0 {
		b.WriteString(subtleStyle.Render("no matches"))
		return b.String()
	}

	start := 0
	if s.cursor >= s.height {
		start = s.cursor - s.height + 1
	}
	end := min(start+s.height, len(s.matches))

	for i := start; i < end; i++ {
		opt := s.options[s.matches[i]]
		code := opt.Code
		name := truncate.StringWithTail(opt.Name, uint(max(width-8, 1)), ellipsis) //nolint:gosec
		pad := max(width-runewidth.StringWidth(name)-runewidth.StringWidth(code)-2, 1)
		line := name + strings.Repeat(" ", pad) + code
		if i == s.cursor {
			b.WriteString(selectedItemStyle.Render("• " + line))
		} else {
			b.WriteString(normalItemStyle.Render("  " + line))
		}
		if i < end-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}
