package collector

import (
	"context"
	"errors"
	"fmt"
)

// Fetcher issues one request against a market-data provider.
// Implementations never return a Go error; failures travel inside the Outcome.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, path string, params map[string]string) Outcome
}

// Outcome is the result of one upstream call: a payload or a typed failure.
type Outcome struct {
	// Payload is decoded JSON (map[string]any, []any, ...) when the provider
	// declared a JSON body, the raw text otherwise, or nil when decoding failed.
	Payload any
	Err     error
}

// Success wraps a payload.
func Success(payload any) Outcome {
	return Outcome{Payload: payload}
}

// Failure wraps an error.
func Failure(err error) Outcome {
	return Outcome{Err: err}
}

// OK reports whether the call succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// StatusCode extracts the HTTP status from an outcome error, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
