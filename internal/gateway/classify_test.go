package gateway

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestHeuristicClassifier_IsRateLimit(t *testing.T) {
	c := HeuristicClassifier{}

	cases := []struct {
		msg  string
		want bool
	}{
		{"googleapi: Error 429: Resource exhausted", true},
		{"Too Many Requests", true},
		{"too many requests, slow down", true},
		{"You exceeded your current QUOTA", true},
		{"500 internal error", false},
		{"connection reset by peer", false},
	}
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			assert.Equal(t, tc.want, c.IsRateLimit(errors.New(tc.msg)))
		})
	}
	assert.False(t, c.IsRateLimit(nil))
}

func TestHeuristicClassifier_RetryAfter(t *testing.T) {
	c := HeuristicClassifier{}

	assert.Equal(t, 13*time.Second, c.RetryAfter(errors.New("429 quota exceeded. Please retry in 12.2s")))
	assert.Equal(t, 7*time.Second, c.RetryAfter(errors.New("Retry In 7 seconds")))
	assert.Equal(t, DefaultRetryAfter, c.RetryAfter(errors.New("429 Too Many Requests")))
	assert.Equal(t, DefaultRetryAfter, c.RetryAfter(nil))
}

func TestClassify(t *testing.T) {
	t.Run("rate limit", func(t *testing.T) {
		err := Classify(nil, "generate", errors.New("429: quota, retry in 3s"))
		var rl *RateLimitError
		require.ErrorAs(t, err, &rl)
		assert.Equal(t, 3*time.Second, rl.RetryAfter)
		assert.Equal(t, 3, rl.RetryAfterSeconds())
		assert.True(t, IsRateLimit(err))
	})

	t.Run("generic with upstream status", func(t *testing.T) {
		raw := fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 503, Message: "unavailable"})
		err := Classify(nil, "generate", raw)
		var me *ModelError
		require.ErrorAs(t, err, &me)
		assert.Equal(t, 503, me.Status)
		assert.Equal(t, "generate", me.Op)
		assert.False(t, IsRateLimit(err))
	})

	t.Run("deadline is generic", func(t *testing.T) {
		err := Classify(nil, "generate", context.DeadlineExceeded)
		assert.False(t, IsRateLimit(err))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("already classified passes through", func(t *testing.T) {
		rl := &RateLimitError{RetryAfter: time.Second, Message: "x"}
		assert.Same(t, rl, Classify(nil, "generate", rl))
	})

	t.Run("custom classifier", func(t *testing.T) {
		err := Classify(alwaysLimited{}, "chat", errors.New("slow down"))
		var rl *RateLimitError
		require.ErrorAs(t, err, &rl)
		assert.Equal(t, 2*time.Second, rl.RetryAfter)
	})

	assert.NoError(t, Classify(nil, "generate", nil))
}

type alwaysLimited struct{}

func (alwaysLimited) IsRateLimit(error) bool { return true }
func (alwaysLimited) RetryAfter(error) time.Duration { return 2 * time.Second }

func TestWithTimeout(t *testing.T) {
	slow := GeneratorFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	_, err := WithTimeout(slow, 10*time.Millisecond).Generate(context.Background(), "p")
	var me *ModelError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 504, me.Status)
	assert.False(t, IsRateLimit(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	fast := GeneratorFunc(func(context.Context, string) (string, error) { return "ok", nil })
	out, err := WithTimeout(fast, time.Second).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}
