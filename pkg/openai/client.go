// Package openai wraps the official OpenAI Go SDK behind a small interface
// that the answer service and its tests depend on.
package openai

import (
	"context"
	"errors"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Client is the chat completions surface used by the assistant.
type Client interface {
	CreateChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest is one chat completion call.
type ChatRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int64
	Temperature *float64
}

// Message is one chat turn. Role is "system", "user" or "assistant".
type Message struct {
	Role    string
	Content string
}

// ChatResponse is the first choice of a completion.
type ChatResponse struct {
	ID           string
	Model        string
	Content      string
	FinishReason string
	Usage        TokenUsage
}

// TokenUsage reports token counts for one completion.
type TokenUsage struct {
	PromptTokens     int64
	CompletionTokens int64
}

// Log writes the usage at debug level.
func (u TokenUsage) Log(model, phase string) {
	zap.L().Debug("openai: token usage",
		zap.String("model", model),
		zap.String("phase", phase),
		zap.Int64("prompt_tokens", u.PromptTokens),
		zap.Int64("completion_tokens", u.CompletionTokens),
	)
}

type sdkClient struct {
	client sdk.Client
}

// NewClient creates a client backed by the SDK. Retries are left to the
// caller, so the SDK's own retry loop is disabled.
func NewClient(apiKey string, opts ...option.RequestOption) Client {
	all := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	return &sdkClient{client: sdk.NewClient(all...)}
}

func (c *sdkClient) CreateChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(req.Model),
		Messages: toSDKMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = sdk.Int(req.MaxTokens)
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "openai: chat completion")
	}

	out := &ChatResponse{
		ID:    completion.ID,
		Model: completion.Model,
		Usage: TokenUsage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
		},
	}
	if len(completion.Choices) > 0 {
		out.Content = completion.Choices[0].Message.Content
		out.FinishReason = completion.Choices[0].FinishReason
	}
	return out, nil
}

// StatusCode returns the HTTP status of an API error in err's chain, or 0
// when the request never got a response.
func StatusCode(err error) int {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func toSDKMessages(msgs []Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, len(msgs))
	for i, m := range msgs {
		switch m.Role {
		case "system":
			out[i] = sdk.SystemMessage(m.Content)
		case "assistant":
			out[i] = sdk.AssistantMessage(m.Content)
		default:
			out[i] = sdk.UserMessage(m.Content)
		}
	}
	return out
}
