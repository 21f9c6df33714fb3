package backend

import (
	"errors"
	"fmt"

	kerrors "github.com/PolarWolf314/sealreel/internal/errors"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend error (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("backend error (HTTP %d): %s", e.StatusCode, e.Detail)
}

// Is maps status codes onto the backend sentinels so callers can match
// with errors.Is.
func (e *APIError) Is(target error) bool {
	switch {
	case e.StatusCode == 401 || e.StatusCode == 403:
		return errors.Is(target, kerrors.ErrUnauthorized)
	case e.StatusCode == 404:
		return errors.Is(target, kerrors.ErrNotFound)
	case e.StatusCode >= 500:
		return errors.Is(target, kerrors.ErrBackendUnavailable)
	default:
		return false
	}
}
