// Package simulation runs business-change scenarios against customer personas.
//
// ReactToScenario fans out one model call per persona through a shared,
// serialized queue and always returns one reaction per persona: any unit that
// fails is replaced by a neutral "undecided" reaction. GenerateInsights and
// Chat are single calls with no fallback.
package simulation

import (
	"context"
	"errors"
	"time"

	"github.com/BerylCAtieno/market-sim-agent/internal/gateway"
	"github.com/BerylCAtieno/market-sim-agent/internal/retry"
	"go.uber.org/zap"
)

const (
	DefaultMaxPersonas = 20
	DefaultCallTimeout = 45 * time.Second
)

type Config struct {
	// MaxPersonas caps a reaction batch. Zero disables the cap.
	MaxPersonas int
	// CallTimeout bounds each direct (insight, chat) model attempt.
	CallTimeout time.Duration
	// Retry is the direct-call policy; queued calls carry their own.
	Retry retry.Policy
}

func DefaultConfig() Config {
	return Config{
		MaxPersonas: DefaultMaxPersonas,
		CallTimeout: DefaultCallTimeout,
		Retry:       retry.DefaultPolicy(),
	}
}

type Simulator struct {
	queue  gateway.Generator
	model  gateway.Client
	cfg    Config
	logger *zap.Logger
}

// New wires a simulator. queue carries the per-persona reaction calls and is
// expected to be the process-wide throttle; model serves direct calls.
func New(queue gateway.Generator, model gateway.Client, cfg Config, logger *zap.Logger) *Simulator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Retry.Logger == nil {
		cfg.Retry.Logger = logger
	}
	return &Simulator{
		queue:  queue,
		model:  model,
		cfg:    cfg,
		logger: logger,
	}
}

// direct runs one model call through the retry policy with a per-attempt timeout.
func direct[T any](ctx context.Context, s *Simulator, call func(ctx context.Context) (T, error)) (T, error) {
	v, err := retry.Do(ctx, s.cfg.Retry, func(ctx context.Context) (T, error) {
		if s.cfg.CallTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
			defer cancel()
		}
		return call(ctx)
	})
	if err != nil {
		return v, surfaceRateLimit(err)
	}
	return v, nil
}

func surfaceRateLimit(err error) error {
	var rl *gateway.RateLimitError
	if errors.As(err, &rl) {
		return &RateLimitedError{RetryAfterSeconds: rl.RetryAfterSeconds(), Err: err}
	}
	return err
}
