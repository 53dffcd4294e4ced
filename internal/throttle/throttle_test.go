package throttle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/BerylCAtieno/market-sim-agent/internal/gateway"
	"github.com/BerylCAtieno/market-sim-agent/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// opencensus starts a stats worker at init via the Gemini SDK.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type fakeGateway struct {
	mu      sync.Mutex
	calls   []string
	times   []time.Time
	respond func(prompt string, n int) (string, error)
}

func (f *fakeGateway) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, prompt)
	f.times = append(f.times, time.Now())
	n := len(f.calls)
	respond := f.respond
	f.mu.Unlock()
	if respond == nil {
		return "ok:" + prompt, nil
	}
	return respond(prompt, n)
}

func (f *fakeGateway) snapshot() ([]string, []time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...), append([]time.Time(nil), f.times...)
}

func testConfig(gap time.Duration) Config {
	return Config{Gap: gap, Retry: retry.Policy{MaxRetries: DefaultMaxRetries, BaseDelay: time.Millisecond}}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1200*time.Millisecond, cfg.Gap)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
}

func TestThrottle_GapBetweenCalls(t *testing.T) {
	gap := 80 * time.Millisecond
	fake := &fakeGateway{}
	th := New(fake, testConfig(gap), nil)
	defer th.Close()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := th.Generate(context.Background(), fmt.Sprintf("p%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	_, times := fake.snapshot()
	require.Len(t, times, 2)
	assert.GreaterOrEqual(t, times[1].Sub(times[0]), gap)
}

func TestThrottle_FIFO(t *testing.T) {
	release := make(chan struct{})
	fake := &fakeGateway{respond: func(prompt string, n int) (string, error) {
		if n == 1 {
			<-release
		}
		return prompt, nil
	}}
	th := New(fake, testConfig(time.Millisecond), nil)
	defer th.Close()

	var wg sync.WaitGroup
	call := func(p string) {
		defer wg.Done()
		_, err := th.Generate(context.Background(), p)
		assert.NoError(t, err)
	}

	wg.Add(1)
	go call("first")
	require.Eventually(t, func() bool {
		calls, _ := fake.snapshot()
		return len(calls) == 1
	}, time.Second, time.Millisecond)

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go call(fmt.Sprintf("q%d", i))
		want := i + 1
		require.Eventually(t, func() bool { return th.Len() == want }, time.Second, time.Millisecond)
	}

	close(release)
	wg.Wait()

	calls, _ := fake.snapshot()
	assert.Equal(t, []string{"first", "q0", "q1", "q2", "q3"}, calls)
}

func TestThrottle_FailureDoesNotPoisonQueue(t *testing.T) {
	fake := &fakeGateway{respond: func(prompt string, n int) (string, error) {
		if n == 1 {
			return "", &gateway.ModelError{Op: "generate", Message: "boom"}
		}
		if n == 2 {
			panic("upstream exploded")
		}
		return "fine", nil
	}}
	th := New(fake, testConfig(time.Millisecond), nil)
	defer th.Close()

	_, err := th.Generate(context.Background(), "a")
	var me *gateway.ModelError
	require.ErrorAs(t, err, &me)

	_, err = th.Generate(context.Background(), "b")
	require.ErrorAs(t, err, &me)

	out, err := th.Generate(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, "fine", out)
}

func TestThrottle_ReducedRetryBudget(t *testing.T) {
	fake := &fakeGateway{respond: func(string, int) (string, error) {
		return "", &gateway.RateLimitError{RetryAfter: time.Millisecond, Message: "429"}
	}}
	th := New(fake, testConfig(time.Millisecond), nil)
	defer th.Close()

	_, err := th.Generate(context.Background(), "a")
	assert.True(t, gateway.IsRateLimit(err))
	calls, _ := fake.snapshot()
	assert.Len(t, calls, DefaultMaxRetries+1)
}

func TestThrottle_CancelledCallIsSkipped(t *testing.T) {
	fake := &fakeGateway{}
	th := New(fake, testConfig(time.Millisecond), nil)
	defer th.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := th.Generate(ctx, "a")
	assert.True(t, errors.Is(err, context.Canceled))

	out, err := th.Generate(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "ok:b", out)

	calls, _ := fake.snapshot()
	assert.Equal(t, []string{"b"}, calls)
}

func TestThrottle_Closed(t *testing.T) {
	th := New(&fakeGateway{}, testConfig(time.Millisecond), nil)
	require.NoError(t, th.Close())
	require.NoError(t, th.Close())

	_, err := th.Generate(context.Background(), "a")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestThrottle_CloseInterruptsBackoff(t *testing.T) {
	fake := &fakeGateway{respond: func(string, int) (string, error) {
		return "", &gateway.RateLimitError{RetryAfter: time.Minute, Message: "429"}
	}}
	th := New(fake, Config{Gap: time.Millisecond, Retry: retry.Policy{MaxRetries: 2, BaseDelay: 30 * time.Second}}, nil)

	errCh := make(chan error, 1)
	go func() {
		_, err := th.Generate(context.Background(), "a")
		errCh <- err
	}()
	require.Eventually(t, func() bool {
		calls, _ := fake.snapshot()
		return len(calls) == 1
	}, time.Second, time.Millisecond)

	start := time.Now()
	require.NoError(t, th.Close())
	assert.Less(t, time.Since(start), time.Second)

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Generate did not return after Close")
	}
	calls, _ := fake.snapshot()
	assert.Len(t, calls, 1)
}
