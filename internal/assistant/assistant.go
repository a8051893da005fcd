// Package assistant answers buying-group questions: it matches a question to
// an opportunity, gathers that opportunity's contacts and touchpoints, and
// asks the answer service about them.
package assistant

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/revops-assistant/internal/answer"
	"github.com/sells-group/revops-assistant/internal/buyinggroup"
	"github.com/sells-group/revops-assistant/internal/filter"
	"github.com/sells-group/revops-assistant/internal/match"
	"github.com/sells-group/revops-assistant/internal/prompt"
	"github.com/sells-group/revops-assistant/internal/schema"
	"github.com/sells-group/revops-assistant/internal/table"
)

// ErrorPrefix starts the user-visible message for a failed answer.
const ErrorPrefix = "Something went wrong: "

// TableSource supplies the raw tables, usually through a cache.
type TableSource interface {
	Get(ctx context.Context) (*table.Set, error)
}

// Result is everything produced for one question.
type Result struct {
	RequestID   string `json:"request_id" yaml:"request_id"`
	Question    string `json:"question" yaml:"question"`
	Opportunity string `json:"opportunity" yaml:"opportunity"`
	MatchPass   string `json:"match_pass" yaml:"match_pass"`
	Prompt      string `json:"prompt" yaml:"prompt"`

	filter.Context `yaml:",inline"`

	// Answer and Error are mutually exclusive.
	Answer string `json:"answer,omitempty" yaml:"answer,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`

	// Opportunities lists every deal name in the loaded tables.
	Opportunities []string `json:"opportunities" yaml:"opportunities"`
}

// Failed reports whether the answer service failed.
func (r *Result) Failed() bool {
	return r.Error != ""
}

// Assistant runs the question pipeline. It is safe for concurrent use when
// its TableSource and Provider are.
type Assistant struct {
	tables   TableSource
	answers  answer.Provider
	system   string
	template string
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithSystemPrompt replaces the system message.
func WithSystemPrompt(s string) Option {
	return func(a *Assistant) {
		if s != "" {
			a.system = s
		}
	}
}

// WithTemplate replaces the analysis template.
func WithTemplate(tmpl string) Option {
	return func(a *Assistant) {
		if tmpl != "" {
			a.template = tmpl
		}
	}
}

// New creates an Assistant.
func New(tables TableSource, answers answer.Provider, opts ...Option) *Assistant {
	a := &Assistant{
		tables:   tables,
		answers:  answers,
		system:   prompt.DefaultSystem,
		template: prompt.Analysis,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// view is one table load normalized, composed and indexed for matching.
type view struct {
	raw     *table.Set
	tables  *schema.Tables
	group   *table.Table
	matcher *match.Matcher
}

func (a *Assistant) load(ctx context.Context) (*view, error) {
	raw, err := a.tables.Get(ctx)
	if err != nil {
		return nil, err
	}
	tables, err := schema.NormalizeSet(raw)
	if err != nil {
		return nil, err
	}
	group, err := buyinggroup.Compose(tables.Roles, tables.Contacts, tables.Deals)
	if err != nil {
		return nil, err
	}
	matcher, err := match.New(tables.Accounts, tables.Deals)
	if err != nil {
		return nil, err
	}
	return &view{raw: raw, tables: tables, group: group, matcher: matcher}, nil
}

// Prepare runs every step up to the rendered prompt without calling the
// answer service. Table and schema errors are returned as errors; an
// unmatched question is not an error.
func (a *Assistant) Prepare(ctx context.Context, question string) (*Result, error) {
	v, err := a.load(ctx)
	if err != nil {
		return nil, err
	}

	m := v.matcher.Match(question)
	fctx := filter.Empty()
	if m.Matched() {
		fctx, err = filter.Apply(v.group, v.tables.SalesActivities, v.tables.Marketing, m.Opportunity)
		if err != nil {
			return nil, err
		}
	}

	b, err := prompt.NewBindings(m.Opportunity, fctx, question)
	if err != nil {
		return nil, err
	}
	text, err := prompt.Render(a.template, b)
	if err != nil {
		return nil, err
	}

	return &Result{
		RequestID:     uuid.NewString(),
		Question:      question,
		Opportunity:   m.Opportunity,
		MatchPass:     m.Pass.String(),
		Prompt:        text,
		Context:       fctx,
		Opportunities: v.matcher.Opportunities(),
	}, nil
}

// Ask answers question. A failure of the answer service is reported in
// Result.Error, never as a partial answer; every other failure is returned
// as an error before the service is called.
func (a *Assistant) Ask(ctx context.Context, question string) (*Result, error) {
	if a.answers == nil {
		return nil, eris.New("assistant: no answer provider configured")
	}
	start := time.Now()

	res, err := a.Prepare(ctx, question)
	if err != nil {
		return nil, err
	}

	text, err := a.answers.Complete(ctx, a.system, res.Prompt)
	if err != nil {
		res.Error = ErrorPrefix + err.Error()
	} else {
		res.Answer = text
	}

	fields := []zap.Field{
		zap.String("request_id", res.RequestID),
		zap.String("opportunity", res.Opportunity),
		zap.String("match_pass", res.MatchPass),
		zap.Int("contacts", len(res.Contacts())),
		zap.Int("activities", len(res.Activities)),
		zap.Int("touchpoints", len(res.Marketing)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	}
	if err != nil {
		zap.L().Warn("assistant: answer failed", append(fields, zap.Error(err))...)
	} else {
		zap.L().Info("assistant: question answered", fields...)
	}
	return res, nil
}
