package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultLibreTranslateURL is where a local LibreTranslate listens.
	DefaultLibreTranslateURL = "http://localhost:5000"

	// DefaultLibreTranslateTimeout bounds a single request.
	DefaultLibreTranslateTimeout = 30 * time.Second
)

// LibreTranslate is an Engine backed by a LibreTranslate server.
type LibreTranslate struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewLibreTranslate returns an engine talking to baseURL. apiKey may be empty
// for servers that do not require one.
func NewLibreTranslate(baseURL, apiKey string, httpClient *http.Client) *LibreTranslate {
	if baseURL == "" {
		baseURL = DefaultLibreTranslateURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultLibreTranslateTimeout}
	}
	return &LibreTranslate{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

type libreLanguage struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Name implements Engine.
func (*LibreTranslate) Name() string { return "libretranslate" }

// Translate implements Engine. LibreTranslate has no regional Chinese codes,
// so zh-cn and zh-tw are sent as zh.
func (c *LibreTranslate) Translate(ctx context.Context, text, source, target string) (string, error) {
	body, err := json.Marshal(libreRequest{
		Q:      text,
		Source: libreCode(source),
		Target: libreCode(target),
		Format: "text",
		APIKey: c.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	log.Debug("libretranslate responded",
		"status", resp.StatusCode,
		"source", source,
		"target", target,
		"duration", time.Since(start),
	)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var out libreResponse
	if err := json.Unmarshal(data, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != "" {
			return "", fmt.Errorf("libretranslate: %s", out.Error)
		}
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return out.TranslatedText, nil
}

// Languages lists the server's languages as code -> name.
func (c *LibreTranslate) Languages(ctx context.Context) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/languages", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var langs []libreLanguage
	if err := json.NewDecoder(resp.Body).Decode(&langs); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	out := make(map[string]string, len(langs))
	for _, l := range langs {
		out[l.Code] = l.Name
	}
	return out, nil
}

// CheckHealth reports whether the server answers its languages endpoint.
func (c *LibreTranslate) CheckHealth(ctx context.Context) error {
	_, err := c.Languages(ctx)
	return err
}

func libreCode(code string) string {
	switch code {
	case "zh-cn", "zh-tw":
		return "zh"
	case "iw":
		return "he"
	default:
		return code
	}
}
