// Package answer sends an assembled prompt to a chat model and returns the
// reply text.
package answer

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/revops-assistant/internal/resilience"
)

// Provider completes a single system + user exchange.
type Provider interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ErrNoContent is returned when the model replies without any text.
var ErrNoContent = eris.New("answer: empty completion")

// ServiceError is any failure of the answer service. Callers render it to
// the user instead of a partial answer.
type ServiceError struct {
	Provider string
	Err      error
}

func (e *ServiceError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Options configures a Service.
type Options struct {
	// MaxAttempts bounds calls per question. Values below 1 mean 1.
	MaxAttempts int
	// Timeout bounds each attempt. Zero means no timeout.
	Timeout time.Duration
	// BreakerThreshold and BreakerReset configure the circuit breaker.
	BreakerThreshold int
	BreakerReset     time.Duration
}

// Service wraps a Provider with bounded retries, a per-attempt timeout and a
// circuit breaker, and converts every failure into a ServiceError.
type Service struct {
	name     string
	provider Provider
	policy   resilience.Policy
	breaker  *resilience.CircuitBreaker
	timeout  time.Duration
}

// NewService creates a Service for the named provider.
func NewService(name string, p Provider, opts Options) *Service {
	policy := resilience.NewPolicy(opts.MaxAttempts)
	policy.OnRetry = resilience.RetryLogger(name)
	return &Service{
		name:     name,
		provider: p,
		policy:   policy,
		breaker: resilience.NewCircuitBreaker(resilience.BreakerConfig{
			FailureThreshold: opts.BreakerThreshold,
			ResetTimeout:     opts.BreakerReset,
			OnStateChange: func(from, to resilience.CircuitState) {
				zap.L().Warn("answer: circuit breaker state change",
					zap.String("provider", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
		timeout: opts.Timeout,
	}
}

// Name returns the provider name.
func (s *Service) Name() string { return s.name }

// Complete asks the provider for an answer. The breaker sees one outcome per
// question, after retries.
func (s *Service) Complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	attempt := 0
	text, err := resilience.ExecuteVal(ctx, s.breaker, func(ctx context.Context) (string, error) {
		return resilience.DoVal(ctx, s.policy, func(ctx context.Context) (string, error) {
			attempt++
			return s.once(ctx, system, user)
		})
	})
	if err != nil {
		return "", &ServiceError{Provider: s.name, Err: err}
	}
	zap.L().Debug("answer: completed",
		zap.String("provider", s.name),
		zap.Int("attempt", attempt),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return text, nil
}

func (s *Service) once(ctx context.Context, system, user string) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.provider.Complete(ctx, system, user)
}
