// internal/llm/errors.go
package llm

import (
	"errors"
	"fmt"
)

// Sentinel errors for routing and lifecycle failures.
var (
	// ErrNoServiceAvailable indicates name resolution found no usable backend.
	ErrNoServiceAvailable = errors.New("no LLM service available")

	// ErrServiceUnavailable indicates the resolved backend is known to be down.
	ErrServiceUnavailable = errors.New("LLM service unavailable")

	// ErrInitFailed indicates router initialization did not complete. The
	// router remains in a state where Initialize can be retried.
	ErrInitFailed = errors.New("router initialization failed")
)

// Error wraps a backend failure with the service it came from, the operation
// that was attempted, and the model involved, so callers can decide whether
// to retry against a different service.
type Error struct {
	Service ServiceType
	Op      string
	Model   string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%s %s (model %s): %v", e.Service, e.Op, e.Model, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a wrapped backend error.
func NewError(service ServiceType, op, model string, err error) *Error {
	return &Error{Service: service, Op: op, Model: model, Err: err}
}

// ServiceOf extracts the backend identifier from a wrapped error, or
// ServiceAuto when the error carries no service context.
func ServiceOf(err error) ServiceType {
	var wrapped *Error
	if errors.As(err, &wrapped) {
		return wrapped.Service
	}
	return ServiceAuto
}
