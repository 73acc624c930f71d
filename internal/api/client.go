// Package api is the HTTP client for the lingo backend: language detection,
// translation, text-to-speech and the language list.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Endpoint paths served by the backend.
const (
	PathDetect    = "/api/detect"
	PathTranslate = "/api/translate"
	PathSpeak     = "/api/speak"
	PathStopAudio = "/api/stop-audio"
	PathLanguages = "/api/languages"
	PathHistory   = "/api/history"
	PathHealth    = "/health"
)

// DefaultBaseURL is where the backend listens unless configured otherwise.
const DefaultBaseURL = "http://127.0.0.1:5000"

// ErrEmptyBaseURL is returned by NewClient when no base URL is given.
var ErrEmptyBaseURL = errors.New("api: base URL is empty")

// StatusError is returned when the backend answers with a non-2xx status
// and a body that is not a JSON API response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client talks to the backend over HTTP. It never retries and never cancels
// a request on its own; the zero Timeout means no timeout at all.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets a per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Detect asks the backend for the language of text.
func (c *Client) Detect(ctx context.Context, text string) (*DetectResponse, error) {
	var resp DetectResponse
	if err := c.do(ctx, http.MethodPost, PathDetect, DetectRequest{Text: text}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Translate asks the backend to translate req.Text into req.TargetLang.
func (c *Client) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	var resp TranslateResponse
	if err := c.do(ctx, http.MethodPost, PathTranslate, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Speak asks the backend to synthesize and play text.
func (c *Client) Speak(ctx context.Context, text, lang string) (*SpeakResponse, error) {
	var resp SpeakResponse
	if err := c.do(ctx, http.MethodPost, PathSpeak, SpeakRequest{Text: text, Lang: lang}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StopAudio halts any audio the backend is playing. The request carries no
// body and the response body is discarded.
func (c *Client) StopAudio(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, PathStopAudio, nil, nil)
}

// Languages fetches the code -> name map of supported target languages.
func (c *Client) Languages(ctx context.Context) (map[string]string, error) {
	var resp map[string]string
	if err := c.do(ctx, http.MethodGet, PathLanguages, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// History fetches the most recent translations, newest first. Backends
// started without a history store answer with a StatusError.
func (c *Client) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	path := PathHistory
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp []HistoryEntry
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Health checks that the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, PathHealth, nil, nil)
}

// do sends body as JSON and decodes the reply into out. The API answers
// failures with a JSON body too, so the body is decoded whatever the status
// code; only an undecodable non-2xx reply becomes a StatusError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = buf
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	log.Debug("api request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		if !ok {
			return &StatusError{Code: resp.StatusCode}
		}
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		if !ok {
			return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
