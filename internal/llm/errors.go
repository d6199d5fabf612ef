package llm

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/api/googleapi"
)

// GenerationError represents a failed text-generation call after retries were
// exhausted (quota, timeout, or a malformed response).
type GenerationError struct {
	Model   string
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation failed (%s): %s: %v", e.Model, e.Message, e.Cause)
	}
	return fmt.Sprintf("generation failed (%s): %s", e.Model, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// EmbeddingError represents a failed embedding call after retries were exhausted.
type EmbeddingError struct {
	Model   string
	Message string
	Cause   error
}

func (e *EmbeddingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("embedding failed (%s): %s: %v", e.Model, e.Message, e.Cause)
	}
	return fmt.Sprintf("embedding failed (%s): %s", e.Model, e.Message)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Cause
}

// IsTransient reports whether an API error is worth retrying: rate limits,
// server-side errors, and network timeouts. Everything else (bad request,
// invalid key, safety blocks) fails immediately.
func IsTransient(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}
	return false
}
