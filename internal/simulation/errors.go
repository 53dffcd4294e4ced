package simulation

import (
	"errors"
	"fmt"
)

var (
	ErrNoPersonas      = errors.New("at least one persona is required")
	ErrTooManyPersonas = errors.New("too many personas in one simulation")
	ErrEmptyMessage    = errors.New("chat message is required")
)

// RateLimitedError is the only upstream failure surfaced to callers as its own
// condition: retries were exhausted and the caller should wait before trying again.
type RateLimitedError struct {
	RetryAfterSeconds int
	Err               error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("Rate limited. Please wait %ds and try again.", e.RetryAfterSeconds)
}

func (e *RateLimitedError) Unwrap() error { return e.Err }

// ParseError means the model answered but not with the expected JSON object.
type ParseError struct {
	Stage string // "json" or "schema"
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model response (%s): %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
