package nl2sql

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// GenerationError reports a failed completion call. The message never embeds
// the prompt, so the schema and the question stay out of responses and logs.
type GenerationError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *GenerationError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("completion %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("completion %s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure looks transient: rate limiting,
// provider-side errors, timeouts and network faults.
func (e *GenerationError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= 500:
		return true
	case e.StatusCode > 0:
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr)
}

// Timeout reports whether the completion call ran out of time.
func (e *GenerationError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}
