package api

import (
	"time"

	"github.com/dgnsrekt/lingo/internal/languages"
)

// Language is a detected language as reported by the backend.
type Language = languages.Language

// DetectRequest is the body of POST /api/detect.
type DetectRequest struct {
	Text string `json:"text"`
}

// DetectResponse is the body returned by POST /api/detect.
type DetectResponse struct {
	Success  bool      `json:"success"`
	Language *Language `json:"language,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// TranslateRequest is the body of POST /api/translate. SourceLang is sent
// as JSON null when no language has been detected.
type TranslateRequest struct {
	Text       string  `json:"text"`
	TargetLang string  `json:"target_lang"`
	SourceLang *string `json:"source_lang"`
}

// TranslateResponse is the body returned by POST /api/translate.
type TranslateResponse struct {
	Success              bool    `json:"success"`
	TranslatedText       string  `json:"translated_text"`
	Error                *string `json:"error"`
	OriginalText         string  `json:"original_text,omitempty"`
	DetectedLanguage     *string `json:"detected_language"`
	DetectedLanguageName string  `json:"detected_language_name,omitempty"`
	TargetLanguage       string  `json:"target_language,omitempty"`
	TargetLanguageName   string  `json:"target_language_name,omitempty"`
}

// ErrorMessage returns the server-provided error, or "" when none was sent.
func (r TranslateResponse) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// SpeakRequest is the body of POST /api/speak.
type SpeakRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// SpeakResponse is the body returned by POST /api/speak.
type SpeakResponse struct {
	Success bool    `json:"success"`
	Error   *string `json:"error"`
}

// StatusResponse is the body returned by POST /api/stop-audio and GET /health.
type StatusResponse struct {
	Success bool   `json:"success,omitempty"`
	Status  string `json:"status,omitempty"`
}

// HistoryEntry is one translation served by the backend, as returned by
// GET /api/history.
type HistoryEntry struct {
	ID             int64     `json:"id"`
	SourceLang     string    `json:"source_lang"`
	TargetLang     string    `json:"target_lang"`
	OriginalText   string    `json:"original_text"`
	TranslatedText string    `json:"translated_text"`
	Engine         string    `json:"engine"`
	CreatedAt      time.Time `json:"created_at"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
