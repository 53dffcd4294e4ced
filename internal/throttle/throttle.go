// Package throttle serializes model calls through one worker so that a burst
// of concurrent callers reaches the upstream as a steady, gapped sequence.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BerylCAtieno/market-sim-agent/internal/gateway"
	"github.com/BerylCAtieno/market-sim-agent/internal/retry"
	"go.uber.org/zap"
)

const (
	DefaultGap        = 1200 * time.Millisecond
	DefaultMaxRetries = 2
	defaultQueueSize  = 64
)

var ErrClosed = errors.New("throttle: closed")

type Config struct {
	// Gap is slept after the previous call settles and before the next is issued.
	Gap time.Duration
	// Retry wraps each queued call. Its budget is smaller than the direct
	// policy because many fan-out callers share the queue.
	Retry     retry.Policy
	QueueSize int
}

func DefaultConfig() Config {
	p := retry.DefaultPolicy()
	p.MaxRetries = DefaultMaxRetries
	return Config{Gap: DefaultGap, Retry: p, QueueSize: defaultQueueSize}
}

type result struct {
	text string
	err  error
}

type job struct {
	ctx    context.Context
	prompt string
	seq    uint64
	result chan result
}

// Throttle is a gateway.Generator that owns the single outbound slot.
type Throttle struct {
	next   gateway.Generator
	cfg    Config
	logger *zap.Logger

	jobs     chan job
	done     chan struct{}
	stop     context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
	seq      atomic.Uint64
}

func New(next gateway.Generator, cfg Config, logger *zap.Logger) *Throttle {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Retry.Logger == nil {
		cfg.Retry.Logger = logger
	}

	stop, cancel := context.WithCancel(context.Background())
	t := &Throttle{
		next:   retry.Wrap(next, cfg.Retry),
		cfg:    cfg,
		logger: logger,
		jobs:   make(chan job, cfg.QueueSize),
		done:   make(chan struct{}),
		stop:   stop,
		cancel: cancel,
	}
	t.wg.Add(1)
	go t.run()
	return t
}

// Generate enqueues the prompt and waits for its turn and its result.
func (t *Throttle) Generate(ctx context.Context, prompt string) (string, error) {
	j := job{
		ctx:    ctx,
		prompt: prompt,
		seq:    t.seq.Add(1),
		result: make(chan result, 1),
	}

	select {
	case <-t.done:
		return "", ErrClosed
	default:
	}

	select {
	case t.jobs <- j:
		t.logger.Debug("Enqueued model call", zap.Uint64("seq", j.seq), zap.Int("queued", len(t.jobs)))
	case <-ctx.Done():
		return "", ctx.Err()
	case <-t.done:
		return "", ErrClosed
	}

	select {
	case r := <-j.result:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-t.done:
		select {
		case r := <-j.result:
			return r.text, r.err
		default:
			return "", ErrClosed
		}
	}
}

// Len reports calls waiting behind the one in flight.
func (t *Throttle) Len() int {
	return len(t.jobs)
}

// Close stops the worker. Queued calls fail with ErrClosed, and the call in
// flight is cancelled along with any backoff it is sleeping through.
func (t *Throttle) Close() error {
	t.stopOnce.Do(func() {
		close(t.done)
		t.cancel()
	})
	t.wg.Wait()
	return nil
}

func (t *Throttle) run() {
	defer t.wg.Done()
	for {
		select {
		case <-t.done:
			t.drain()
			return
		case j := <-t.jobs:
			j.result <- t.dispatch(j)
		}
	}
}

func (t *Throttle) drain() {
	for {
		select {
		case j := <-t.jobs:
			j.result <- result{err: ErrClosed}
		default:
			return
		}
	}
}

// dispatch never lets one job's failure leak into the next.
func (t *Throttle) dispatch(j job) (r result) {
	defer func() {
		if p := recover(); p != nil {
			t.logger.Error("Model call panicked", zap.Uint64("seq", j.seq), zap.Any("panic", p))
			r = result{err: &gateway.ModelError{Op: "generate", Message: fmt.Sprintf("panic: %v", p)}}
		}
	}()

	if err := j.ctx.Err(); err != nil {
		return result{err: err}
	}
	if err := t.wait(j.ctx); err != nil {
		return result{err: err}
	}

	ctx, cancel := context.WithCancel(j.ctx)
	defer cancel()
	defer context.AfterFunc(t.stop, cancel)()

	t.logger.Debug("Dispatching model call", zap.Uint64("seq", j.seq))
	text, err := t.next.Generate(ctx, j.prompt)
	if err != nil && t.stop.Err() != nil && j.ctx.Err() == nil {
		err = ErrClosed
	}
	if err != nil {
		t.logger.Debug("Model call failed", zap.Uint64("seq", j.seq), zap.Error(err))
	}
	return result{text: text, err: err}
}

func (t *Throttle) wait(ctx context.Context) error {
	if t.cfg.Gap <= 0 {
		return nil
	}
	timer := time.NewTimer(t.cfg.Gap)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return ErrClosed
	}
}
