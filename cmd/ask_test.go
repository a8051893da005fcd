//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/revops-assistant/internal/assistant"
	"github.com/sells-group/revops-assistant/internal/cache"
	"github.com/sells-group/revops-assistant/internal/fetcher"
	"github.com/sells-group/revops-assistant/internal/loader"
)

func TestRunAsk_Text(t *testing.T) {
	p := &mockProvider{}
	p.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("Grace Hopper owns the budget.", nil)

	var buf bytes.Buffer
	err := runAsk(context.Background(), newTestAssistant(t, p), &buf, "acme corp budget?", "text", false)
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper owns the budget.\n", buf.String())
}

func TestRunAsk_TextDebug(t *testing.T) {
	p := &mockProvider{}
	p.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("answer text", nil)

	var buf bytes.Buffer
	err := runAsk(context.Background(), newTestAssistant(t, p), &buf, "globex", "text", true)
	require.NoError(t, err)

	out := buf.String()
	for _, want := range []string{
		"MATCH", "Opportunity: Globex Platform Upsell", "Pass: account",
		"BUYING GROUP", "SALES ACTIVITIES", "MARKETING TOUCHPOINTS",
		"AVAILABLE OPPORTUNITIES", "  Initech TPS Rollout",
		"PROMPT", "ANSWER", "answer text",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRunAsk_TextDebugNoMatch(t *testing.T) {
	p := &mockProvider{}
	p.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("nothing found", nil)

	var buf bytes.Buffer
	require.NoError(t, runAsk(context.Background(), newTestAssistant(t, p), &buf, "umbrella", "text", true))
	assert.Contains(t, buf.String(), "Opportunity: (none)")
	assert.Contains(t, buf.String(), "[]")
}

func TestRunAsk_Failure(t *testing.T) {
	p := &mockProvider{}
	p.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("openai: timeout"))

	var buf bytes.Buffer
	err := runAsk(context.Background(), newTestAssistant(t, p), &buf, "acme corp", "text", false)
	require.NoError(t, err)
	assert.Equal(t, "Something went wrong: openai: timeout\n", buf.String())
}

func TestRunAsk_JSON(t *testing.T) {
	p := &mockProvider{}
	p.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("ok", nil)

	var buf bytes.Buffer
	require.NoError(t, runAsk(context.Background(), newTestAssistant(t, p), &buf, "a1-expansion-2025", "json", true))

	var resp askResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "A1-Expansion-2025", resp.Opportunity)
	assert.Equal(t, "opportunity", resp.MatchPass)
	assert.Equal(t, "ok", resp.Answer)
	require.NotNil(t, resp.Debug)
	assert.Contains(t, resp.Debug.Prompt, "A1-Expansion-2025")
}

func TestRunAsk_YAML(t *testing.T) {
	p := &mockProvider{}
	p.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("ok", nil)

	var buf bytes.Buffer
	require.NoError(t, runAsk(context.Background(), newTestAssistant(t, p), &buf, "globex", "yaml", true))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "Globex Platform Upsell", doc["opportunity"])
	debug, ok := doc["debug"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, debug, "buying_group")
	assert.Contains(t, debug, "marketing_touchpoints")
}

func TestRunAsk_UnknownOutput(t *testing.T) {
	p := &mockProvider{}
	var buf bytes.Buffer
	err := runAsk(context.Background(), newTestAssistant(t, p), &buf, "acme", "xml", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
	p.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunAsk_LoadError(t *testing.T) {
	opener, err := fetcher.NewOpener(t.TempDir(), fetcher.Options{})
	require.NoError(t, err)
	p := &mockProvider{}
	a := assistant.New(cache.New(loader.NewCSV(opener), 0), p)

	var buf bytes.Buffer
	err = runAsk(context.Background(), a, &buf, "acme", "text", false)
	require.Error(t, err)
	assert.Empty(t, buf.String())
	p.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}
