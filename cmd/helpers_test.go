//go:build !integration

package main

import (
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/revops-assistant/internal/assistant"
	"github.com/sells-group/revops-assistant/internal/cache"
	"github.com/sells-group/revops-assistant/internal/fetcher"
	"github.com/sells-group/revops-assistant/internal/loader"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	color.NoColor = true
}

const fixtureDir = "../internal/loader/testdata/crm"

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Complete(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

func fixtureTables(t *testing.T) *cache.Tables {
	t.Helper()
	opener, err := fetcher.NewOpener(fixtureDir, fetcher.Options{})
	require.NoError(t, err)
	return cache.New(loader.NewCSV(opener), 0)
}

func newTestAssistant(t *testing.T, p *mockProvider) *assistant.Assistant {
	t.Helper()
	if p == nil {
		return assistant.New(fixtureTables(t), nil)
	}
	return assistant.New(fixtureTables(t), p)
}
