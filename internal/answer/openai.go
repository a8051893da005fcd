package answer

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revops-assistant/internal/resilience"
	"github.com/sells-group/revops-assistant/pkg/openai"
)

// OpenAIProvider answers through an OpenAI-compatible chat completions
// endpoint.
type OpenAIProvider struct {
	client      openai.Client
	model       string
	maxTokens   int64
	temperature *float64
}

// NewOpenAIProvider creates a provider. maxTokens of zero and a nil
// temperature leave the endpoint defaults in place.
func NewOpenAIProvider(client openai.Client, model string, maxTokens int64, temperature *float64) *OpenAIProvider {
	return &OpenAIProvider{client: client, model: model, maxTokens: maxTokens, temperature: temperature}
}

// Complete sends system and user as a two-message chat.
func (p *OpenAIProvider) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatRequest{
		Model: p.model,
		Messages: []openai.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	})
	if err != nil {
		if code := openai.StatusCode(err); resilience.IsTransientHTTPStatus(code) {
			return "", resilience.NewTransientError(err, code)
		}
		return "", err
	}
	resp.Usage.Log(p.model, "answer")

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", eris.Wrapf(ErrNoContent, "openai: finish reason %q", resp.FinishReason)
	}
	return text, nil
}
