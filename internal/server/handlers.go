package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/lingo/internal/api"
	"github.com/dgnsrekt/lingo/internal/history"
	"github.com/dgnsrekt/lingo/internal/languages"
	"github.com/sony/gobreaker"
)

// Error strings sent to clients.
const (
	errTextEmpty      = "Text is empty"
	errNotDetected    = "Could not detect language"
	errEmptyText      = "Empty text"
	errSpeechFailed   = "Failed to generate speech"
	errInvalidRequest = "Invalid JSON body"
	unknownName       = "Unknown"
)

const maxBodySize = 1 << 20

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req api.DetectRequest
	if !decode(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		s.metrics.detections.WithLabelValues("empty").Inc()
		writeJSON(w, http.StatusOK, api.DetectResponse{Error: errTextEmpty})
		return
	}

	lang, err := s.detector.Detect(req.Text)
	if err != nil {
		log.Debug("detection failed", "error", err)
		s.metrics.detections.WithLabelValues("undetected").Inc()
		writeJSON(w, http.StatusOK, api.DetectResponse{Error: errNotDetected})
		return
	}

	s.metrics.detections.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, api.DetectResponse{Success: true, Language: &lang})
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req api.TranslateRequest
	if !decode(w, r, &req) {
		return
	}

	target := req.TargetLang
	if target == "" {
		target = languages.DefaultCode
	}
	engine := s.translator.Engine()

	if strings.TrimSpace(req.Text) == "" {
		s.metrics.translations.WithLabelValues(engine, "empty").Inc()
		writeJSON(w, http.StatusOK, api.TranslateResponse{
			OriginalText: req.Text,
			Error:        api.StringPtr(errEmptyText),
		})
		return
	}

	source := ""
	if req.SourceLang != nil {
		source = *req.SourceLang
	}

	// Without a source the engine auto-detects; the detector only fills in
	// the reported language.
	detected := source
	if detected == "" {
		if lang, err := s.detector.Detect(req.Text); err == nil {
			detected = lang.Code
		}
	}

	out, err := s.translator.Translate(r.Context(), req.Text, source, target)
	if err != nil {
		log.Error("Translation error", "error", err, "target", target)
		s.metrics.translations.WithLabelValues(engine, "error").Inc()
		writeJSON(w, http.StatusOK, api.TranslateResponse{
			OriginalText: req.Text,
			Error:        api.StringPtr(err.Error()),
		})
		return
	}
	s.metrics.translations.WithLabelValues(engine, "ok").Inc()

	if s.history != nil {
		if err := s.history.Record(r.Context(), history.Entry{
			SourceLang:     detected,
			TargetLang:     target,
			OriginalText:   req.Text,
			TranslatedText: out,
			Engine:         engine,
		}); err != nil {
			log.Warn("unable to record translation", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, api.TranslateResponse{
		Success:              true,
		TranslatedText:       out,
		OriginalText:         req.Text,
		DetectedLanguage:     api.StringPtr(detected),
		DetectedLanguageName: s.languageName(detected),
		TargetLanguage:       target,
		TargetLanguageName:   s.languageName(target),
	})
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req api.SpeakRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Lang == "" {
		req.Lang = languages.DefaultCode
	}

	err := errors.New("speech is disabled")
	if s.speaker != nil {
		err = s.speaker.Speak(r.Context(), req.Text, req.Lang)
	}
	if err != nil {
		log.Error("TTS error", "error", err, "lang", req.Lang)
		s.metrics.speech.WithLabelValues("error").Inc()
		writeJSON(w, http.StatusOK, api.SpeakResponse{Error: api.StringPtr(errSpeechFailed)})
		return
	}

	s.metrics.speech.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, api.SpeakResponse{Success: true})
}

func (s *Server) handleStopAudio(w http.ResponseWriter, _ *http.Request) {
	if s.speaker != nil {
		if err := s.speaker.Stop(); err != nil {
			log.Warn("unable to stop audio", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, api.StatusResponse{Success: true})
}

func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.languages)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, 500)
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		log.Error("unable to read history", "error", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// breaker is implemented by translators guarded by a circuit breaker.
type breaker interface {
	State() gobreaker.State
}

// handleHealth answers 200 while the process is up. An open breaker is
// reported as degraded so clients can tell the engine is failing.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if b, ok := s.translator.(breaker); ok && b.State() == gobreaker.StateOpen {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: status})
}

func (s *Server) languageName(code string) string {
	if name, ok := s.languages[code]; ok {
		return name
	}
	return unknownName
}

// decode reads a JSON body into v. On failure it writes a 400 and returns
// false. An empty body decodes to the zero value.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	log.Debug("rejecting request body", "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": errInvalidRequest})
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("unable to write response", "error", err)
	}
}
