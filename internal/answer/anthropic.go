package answer

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revops-assistant/internal/resilience"
	"github.com/sells-group/revops-assistant/pkg/anthropic"
)

// Anthropic's "overloaded" status.
const statusOverloaded = 529

// AnthropicProvider answers through the Anthropic Messages API.
type AnthropicProvider struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature *float64
}

// NewAnthropicProvider creates a provider. temperature may be nil to use the
// model default.
func NewAnthropicProvider(client anthropic.Client, model string, maxTokens int64, temperature *float64) *AnthropicProvider {
	return &AnthropicProvider{client: client, model: model, maxTokens: maxTokens, temperature: temperature}
}

// Complete sends system and user as a single-turn conversation.
func (p *AnthropicProvider) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       p.model,
		MaxTokens:   p.maxTokens,
		System:      system,
		Messages:    []anthropic.Message{{Role: "user", Content: user}},
		Temperature: p.temperature,
	})
	if err != nil {
		if code := anthropic.StatusCode(err); code == statusOverloaded || resilience.IsTransientHTTPStatus(code) {
			return "", resilience.NewTransientError(err, code)
		}
		return "", err
	}
	resp.Usage.LogCost(p.model, "answer")

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", eris.Wrapf(ErrNoContent, "anthropic: stop reason %q", resp.StopReason)
	}
	return text, nil
}
