package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgnsrekt/lingo/internal/languages"
	"github.com/sashabaranov/go-openai"
)

// ErrNoAPIKey is returned when the OpenAI engine has no key configured.
var ErrNoAPIKey = errors.New("OpenAI API key not found")

// OpenAI is an Engine that asks a chat model for the translation. It works
// with any OpenAI-compatible endpoint.
type OpenAI struct {
	apiKey string
	model  string
	client *openai.Client
}

// NewOpenAI returns an engine using model. An empty baseURL targets the
// OpenAI API itself.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{
		apiKey: apiKey,
		model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

// Name implements Engine.
func (*OpenAI) Name() string { return "openai" }

// Translate implements Engine.
func (o *OpenAI) Translate(ctx context.Context, text, source, target string) (string, error) {
	if o.apiKey == "" {
		return "", ErrNoAPIKey
	}

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a translation engine. Reply with the translation only, preserving line breaks.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt(text, source, target),
			},
		},
		Temperature: 0.2,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no translation returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func prompt(text, source, target string) string {
	to := languages.NameOr(target, target)
	if source == "" || source == AutoSource {
		return fmt.Sprintf("Translate the following text to %s.\n\n%s", to, text)
	}
	from := languages.NameOr(source, source)
	return fmt.Sprintf("Translate the following text from %s to %s.\n\n%s", from, to, text)
}
