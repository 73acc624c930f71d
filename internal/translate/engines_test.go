package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLibreTranslate(t *testing.T) {
	var got libreRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"translatedText": "你好"})
	}))
	defer srv.Close()

	e := NewLibreTranslate(srv.URL+"/", "secret", srv.Client())
	out, err := e.Translate(context.Background(), "hello", "en", "zh-cn")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if out != "你好" {
		t.Errorf("unexpected translation %q", out)
	}
	if got.Q != "hello" || got.Source != "en" || got.Target != "zh" || got.Format != "text" || got.APIKey != "secret" {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestLibreTranslateErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"json error", http.StatusBadRequest, `{"error":"quota exceeded"}`, "libretranslate: quota exceeded"},
		{"plain error", http.StatusBadGateway, "bad gateway\n", "unexpected status 502: bad gateway"},
		{"bad json", http.StatusOK, "not json", "decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewLibreTranslate(srv.URL, "", nil).Translate(context.Background(), "hi", "auto", "fr")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLibreTranslateLanguages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/languages" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`[{"code":"en","name":"English"},{"code":"fr","name":"French"}]`))
	}))
	defer srv.Close()

	e := NewLibreTranslate(srv.URL, "", nil)
	langs, err := e.Languages(context.Background())
	if err != nil {
		t.Fatalf("Languages failed: %v", err)
	}
	if len(langs) != 2 || langs["fr"] != "French" {
		t.Errorf("unexpected languages %v", langs)
	}
	if err := e.CheckHealth(context.Background()); err != nil {
		t.Errorf("CheckHealth failed: %v", err)
	}
}

func TestOpenAI(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) > 0 {
			prompt = req.Messages[len(req.Messages)-1].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","model":"test",
			"choices":[{"index":0,"message":{"role":"assistant","content":"  Bonjour  "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	e := NewOpenAI("key", srv.URL+"/v1", "test")
	out, err := e.Translate(context.Background(), "Hello", "en", "fr")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if out != "Bonjour" {
		t.Errorf("unexpected translation %q", out)
	}
	if !strings.Contains(prompt, "from English to French") {
		t.Errorf("unexpected prompt %q", prompt)
	}
}

func TestOpenAIWithoutKey(t *testing.T) {
	_, err := NewOpenAI("", "", "").Translate(context.Background(), "hi", "auto", "fr")
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestPrompt(t *testing.T) {
	if got := prompt("hola", AutoSource, "en"); !strings.HasPrefix(got, "Translate the following text to English.") {
		t.Errorf("unexpected prompt %q", got)
	}
	if got := prompt("x", "xx", "yy"); !strings.Contains(got, "from xx to yy") {
		t.Errorf("unknown codes should be used verbatim, got %q", got)
	}
}
