package gateway

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/googleapi"
	gensdk "google.golang.org/genai"
)

// DefaultRetryAfter is used when the upstream message carries no hint.
const DefaultRetryAfter = 60 * time.Second

// RateLimitError means the upstream throttled the call.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
	Err        error
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (retry in %.0fs): %s", e.RetryAfter.Seconds(), e.Message)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// RetryAfterSeconds rounds the suggested wait up to whole seconds.
func (e *RateLimitError) RetryAfterSeconds() int {
	return int(math.Ceil(e.RetryAfter.Seconds()))
}

// IsRateLimit reports whether err is, or wraps, a *RateLimitError.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// Classifier decides whether an upstream error is rate limiting and how long
// the upstream asked us to wait. Swap it per provider.
type Classifier interface {
	IsRateLimit(err error) bool
	RetryAfter(err error) time.Duration
}

// HeuristicClassifier matches substrings in the upstream error message.
// Provider message formats are not a contract; treat results as best effort.
type HeuristicClassifier struct{}

var retryInPattern = regexp.MustCompile(`(?i)retry in (\d+(?:\.\d+)?)`)

func (HeuristicClassifier) IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "429") ||
		strings.Contains(lower, "too many requests") ||
		strings.Contains(lower, "quota")
}

func (HeuristicClassifier) RetryAfter(err error) time.Duration {
	if err == nil {
		return DefaultRetryAfter
	}
	m := retryInPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return DefaultRetryAfter
	}
	secs, perr := strconv.ParseFloat(m[1], 64)
	if perr != nil {
		return DefaultRetryAfter
	}
	return time.Duration(math.Ceil(secs)) * time.Second
}

// Classify converts a raw upstream error into *RateLimitError or *ModelError.
// Already classified errors pass through.
func Classify(c Classifier, op string, err error) error {
	if err == nil {
		return nil
	}
	var rl *RateLimitError
	var me *ModelError
	if errors.As(err, &rl) || errors.As(err, &me) {
		return err
	}
	if c == nil {
		c = HeuristicClassifier{}
	}
	if c.IsRateLimit(err) {
		return &RateLimitError{RetryAfter: c.RetryAfter(err), Message: err.Error(), Err: err}
	}
	return &ModelError{Op: op, Status: upstreamStatus(err), Message: err.Error(), Err: err}
}

func upstreamStatus(err error) int {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	var sdkErr gensdk.APIError
	if errors.As(err, &sdkErr) {
		return sdkErr.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return 504
	}
	return 0
}

