// Package gateway wraps single calls to a hosted text-generation model and
// turns upstream failures into *ModelError or *RateLimitError.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BerylCAtieno/market-sim-agent/internal/models"
)

// Generator issues one prompt and returns the raw text output.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Chatter continues a persona conversation. greeting is the model turn that
// acknowledges the system prompt before history is replayed.
type Chatter interface {
	Chat(ctx context.Context, systemPrompt, greeting string, history []models.ChatMessage, message string) (string, error)
}

// Client is a full model backend.
type Client interface {
	Generator
	Chatter
	Close() error
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ModelError is any upstream failure that is not rate limiting.
type ModelError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *ModelError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: model error (status %d): %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: model error: %s", e.Op, e.Message)
}

func (e *ModelError) Unwrap() error { return e.Err }

var errNoContent = errors.New("no content generated")

// WithTimeout bounds every call to next by d. Expiry is reported as a
// generic *ModelError, never as rate limiting.
func WithTimeout(next Generator, d time.Duration) Generator {
	if d <= 0 {
		return next
	}
	return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		text, err := next.Generate(callCtx, prompt)
		if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !IsRateLimit(err) {
			return "", &ModelError{Op: "generate", Status: 504, Message: fmt.Sprintf("call timed out after %s", d), Err: err}
		}
		return text, err
	})
}
