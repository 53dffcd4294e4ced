// Package retry retries model calls that failed because the upstream
// throttled them. Any other failure is returned on the first attempt.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/BerylCAtieno/market-sim-agent/internal/gateway"
	"go.uber.org/zap"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 2 * time.Second
)

type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Logger     *zap.Logger

	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultBaseDelay}
}

// Backoff is min(server hint, BaseDelay * 2^attempt).
func (p Policy) Backoff(attempt int, hint time.Duration) time.Duration {
	exp := p.BaseDelay << uint(attempt)
	if exp <= 0 || (hint > 0 && hint < exp) {
		return hint
	}
	return exp
}

// Do calls fn, retrying only on *gateway.RateLimitError, at most MaxRetries
// times. The last error is returned once the budget is spent.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	maxRetries := max(p.MaxRetries, 0)

	for attempt := 0; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}

		var rl *gateway.RateLimitError
		if !errors.As(err, &rl) || attempt >= maxRetries {
			return zero, err
		}

		delay := p.Backoff(attempt, rl.RetryAfter)
		logger.Warn("Rate limited, backing off",
			zap.Duration("delay", delay),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries))

		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
	}
}

// Wrap decorates a Generator with the policy.
func Wrap(next gateway.Generator, p Policy) gateway.Generator {
	return gateway.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return Do(ctx, p, func(ctx context.Context) (string, error) {
			return next.Generate(ctx, prompt)
		})
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
