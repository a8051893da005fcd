package main

import (
	"context"
	"os"
	"time"

	openaiopt "github.com/openai/openai-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/revops-assistant/internal/answer"
	"github.com/sells-group/revops-assistant/internal/assistant"
	"github.com/sells-group/revops-assistant/internal/cache"
	"github.com/sells-group/revops-assistant/internal/config"
	"github.com/sells-group/revops-assistant/internal/db"
	"github.com/sells-group/revops-assistant/internal/fetcher"
	"github.com/sells-group/revops-assistant/internal/loader"
	anthropicpkg "github.com/sells-group/revops-assistant/pkg/anthropic"
	openaipkg "github.com/sells-group/revops-assistant/pkg/openai"
	"github.com/sells-group/revops-assistant/pkg/salesforce"
)

const userAgent = "revops-assistant/1.0"

// assistantEnv holds everything a command needs to answer questions.
type assistantEnv struct {
	Tables    *cache.Tables
	Assistant *assistant.Assistant
	closers   []func()
}

// Close releases database handles in reverse open order.
func (e *assistantEnv) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

// initAssistant wires the table loader, cache and, when withAnswers is set,
// the answer service.
func initAssistant(ctx context.Context, c *config.Config, withAnswers bool) (*assistantEnv, error) {
	env := &assistantEnv{}

	l, err := newTableLoader(ctx, c, env)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Tables = cache.New(l, c.Data.CacheTTL())

	var provider answer.Provider
	if withAnswers {
		svc, err := newAnswerService(c)
		if err != nil {
			env.Close()
			return nil, err
		}
		provider = svc
	}

	env.Assistant = assistant.New(env.Tables, provider,
		assistant.WithSystemPrompt(c.Answer.SystemPrompt),
	)
	return env, nil
}

// newTableLoader returns the loader for data.source. Connections it opens
// are registered on env for Close.
func newTableLoader(ctx context.Context, c *config.Config, env *assistantEnv) (cache.Loader, error) {
	log := zap.L().With(zap.String("source", c.Data.Source))

	switch c.Data.Source {
	case config.SourceCSV, config.SourceXLSX:
		opener, err := fetcher.NewOpener(c.Data.Dir, fetcher.Options{
			Timeout:    time.Duration(c.Data.FetchTimeoutSecs) * time.Second,
			UserAgent:  userAgent,
			MaxRetries: c.Data.FetchRetries,
			RateLimit:  c.Data.FetchRateLimit,
		})
		if err != nil {
			return nil, err
		}
		log.Debug("tables: file source", zap.Bool("remote", opener.Remote()))
		if c.Data.Source == config.SourceXLSX {
			return loader.NewXLSX(opener, c.Data.Workbook), nil
		}
		return loader.NewCSV(opener), nil

	case config.SourceSQLite:
		s, err := loader.OpenSQLite(c.Data.DatabaseURL)
		if err != nil {
			return nil, err
		}
		env.closers = append(env.closers, func() { _ = s.Close() })
		return s, nil

	case config.SourcePostgres:
		pool, err := db.Connect(ctx, c.Data.DatabaseURL)
		if err != nil {
			return nil, err
		}
		p := loader.NewPostgres(pool)
		env.closers = append(env.closers, func() { _ = p.Close() })
		return p, nil

	case config.SourceSalesforce:
		key, err := os.ReadFile(c.Salesforce.KeyPath)
		if err != nil {
			return nil, eris.Wrap(err, "salesforce: read private key")
		}
		client, err := salesforce.Connect(salesforce.Creds{
			LoginURL:   c.Salesforce.LoginURL,
			Username:   c.Salesforce.Username,
			ClientID:   c.Salesforce.ClientID,
			PrivateKey: string(key),
		}, salesforce.WithRateLimit(c.Salesforce.RateLimit))
		if err != nil {
			return nil, err
		}
		return loader.NewSalesforce(client), nil
	}
	return nil, eris.Errorf("tables: unknown data source %q", c.Data.Source)
}

// newAnswerService builds the configured provider behind retries and a
// circuit breaker.
func newAnswerService(c *config.Config) (*answer.Service, error) {
	model := c.AnswerModel()
	maxTokens := int64(c.Answer.MaxTokens)

	var p answer.Provider
	switch c.Answer.Provider {
	case config.ProviderAnthropic:
		client := anthropicpkg.NewClient(c.Anthropic.Key)
		p = answer.NewAnthropicProvider(client, model, maxTokens, c.Answer.Temperature)
	case config.ProviderOpenAI:
		var opts []openaiopt.RequestOption
		if c.OpenAI.BaseURL != "" {
			opts = append(opts, openaiopt.WithBaseURL(c.OpenAI.BaseURL))
		}
		client := openaipkg.NewClient(c.OpenAI.Key, opts...)
		p = answer.NewOpenAIProvider(client, model, maxTokens, c.Answer.Temperature)
	default:
		return nil, eris.Errorf("answer: unknown provider %q", c.Answer.Provider)
	}

	zap.L().Debug("answer: provider ready",
		zap.String("provider", c.Answer.Provider),
		zap.String("model", model),
	)
	return answer.NewService(c.Answer.Provider, p, answer.Options{
		MaxAttempts:      c.Answer.MaxAttempts,
		Timeout:          time.Duration(c.Answer.TimeoutSecs) * time.Second,
		BreakerThreshold: c.Answer.BreakerThreshold,
		BreakerReset:     time.Duration(c.Answer.BreakerResetSecs) * time.Second,
	}), nil
}
