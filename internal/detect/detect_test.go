package detect

import (
	"errors"
	"testing"
)

func newTestDetector() *Detector {
	return New(WithLanguages("en", "fr", "de", "es", "he", "zh"))
}

func TestDetect(t *testing.T) {
	d := newTestDetector()

	tests := []struct {
		text string
		code string
		name string
	}{
		{"Bonjour tout le monde, comment allez-vous aujourd'hui ?", "fr", "French"},
		{"Hello everyone, how are you doing today?", "en", "English"},
		{"Hola a todos, ¿cómo están ustedes hoy?", "es", "Spanish"},
		{"Guten Morgen, wie geht es Ihnen heute?", "de", "German"},
		{"שלום לכולם, מה שלומכם היום?", "iw", "Hebrew"},
		{"你好，今天天气很好，我们去公园吧。", "zh-cn", "Chinese (Simplified)"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			lang, err := d.Detect(tt.text)
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if lang.Code != tt.code || lang.Name != tt.name {
				t.Errorf("got %s/%s, want %s/%s", lang.Code, lang.Name, tt.code, tt.name)
			}
		})
	}
}

func TestDetectRejectsShortText(t *testing.T) {
	d := newTestDetector()

	if _, err := d.Detect("   "); !errors.Is(err, ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
	if _, err := d.Detect(" ab "); !errors.Is(err, ErrUndetectable) {
		t.Errorf("expected ErrUndetectable, got %v", err)
	}
}

func TestLinguaLanguages(t *testing.T) {
	if got := linguaLanguages([]string{"EN", "fr", "xx"}); len(got) != 2 {
		t.Errorf("expected 2 languages, got %d", len(got))
	}
	if got := linguaLanguages(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}
