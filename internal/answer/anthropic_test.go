package answer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revops-assistant/internal/resilience"
	"github.com/sells-group/revops-assistant/pkg/anthropic"
)

type mockAnthropic struct {
	mock.Mock
}

func (m *mockAnthropic) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*anthropic.MessageResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestAnthropicProvider_BuildsRequest(t *testing.T) {
	temp := 0.3
	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, anthropic.MessageRequest{
		Model:       "claude-sonnet-4-5-20250929",
		MaxTokens:   2048,
		System:      "sys",
		Messages:    []anthropic.Message{{Role: "user", Content: "prompt"}},
		Temperature: &temp,
	}).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "\nRenewal risk is low.\n"}},
		Usage:   anthropic.TokenUsage{InputTokens: 900, OutputTokens: 40},
	}, nil)

	p := NewAnthropicProvider(client, "claude-sonnet-4-5-20250929", 2048, &temp)
	got, err := p.Complete(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Renewal risk is low.", got)
	client.AssertExpectations(t)
}

func TestAnthropicProvider_EmptyText(t *testing.T) {
	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(&anthropic.MessageResponse{StopReason: "max_tokens"}, nil)

	_, err := NewAnthropicProvider(client, "m", 16, nil).Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoContent))
	assert.Contains(t, err.Error(), "max_tokens")
}

func TestAnthropicProvider_ErrorsAgainstServer(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"overloaded", 529, true},
		{"server error", http.StatusInternalServerError, true},
		{"invalid key", http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
					"type":  "error",
					"error": map[string]any{"type": "api_error", "message": "nope"},
				})
			}))
			defer ts.Close()

			client := anthropic.NewClient("test-key", option.WithBaseURL(ts.URL))
			_, err := NewAnthropicProvider(client, "claude-sonnet-4-5-20250929", 64, nil).
				Complete(context.Background(), "s", "u")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "anthropic: create message")
			assert.Equal(t, tt.transient, resilience.IsTransient(err))
		})
	}
}

func TestAnthropicProvider_AgainstServer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"content":     []map[string]any{{"type": "text", "text": "Grace Hopper champions the deal."}},
			"model":       "claude-sonnet-4-5-20250929",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 6},
		})
	}))
	defer ts.Close()

	client := anthropic.NewClient("test-key", option.WithBaseURL(ts.URL))
	svc := NewService("anthropic", NewAnthropicProvider(client, "claude-sonnet-4-5-20250929", 64, nil), Options{})
	got, err := svc.Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper champions the deal.", got)
}
