// Package failure classifies pipeline errors as transient or fatal.
// Transient errors are re-enqueued with a delay, up to the attempt
// budget; everything else is treated as attempt exhaustion immediately.
package failure

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// TransientError marks an error as retryable. Collaborator clients and
// store repositories wrap connectivity failures with it.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as retryable. Returns nil for nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err should be retried. Connectivity and
// timeout failures against the store or collaborators qualify; malformed
// payloads and invalid collaborator output do not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	return false
}
