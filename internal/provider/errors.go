package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// BackendError describes a failed call to a generation backend.
// Retryable marks capacity and credential failures where the next candidate
// backend may still succeed; everything else fails the job directly.
type BackendError struct {
	Backend    string
	Op         string
	StatusCode int // zero for transport-level failures
	Retryable  bool
	Err        error
}

func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s: status %d: %v", e.Backend, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// RetryableStatus reports whether an HTTP status code indicates a failure
// that another backend might not share: auth problems, throttling and
// server-side errors.
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return true
	}
	return code >= 500
}

// ShouldFallback reports whether the next candidate backend should be tried
// after this error.
func ShouldFallback(err error) bool {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Retryable
	}
	return false
}
