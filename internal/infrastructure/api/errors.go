package api

import (
	"errors"
	"fmt"
)

// Common errors surfaced by the resource client
var (
	// ErrUnauthorized indicates the backend rejected the credential (HTTP 401).
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrForbidden indicates the account is blocked (HTTP 403).
	ErrForbidden = errors.New("api: forbidden")
	// ErrMalformedEnvelope indicates a list response did not carry the
	// normalized paginated envelope.
	ErrMalformedEnvelope = errors.New("api: malformed paginated envelope")
	// ErrUnavailable indicates the backend could not be reached.
	ErrUnavailable = errors.New("api: backend unavailable")
)

// Error is a typed failure for non-2xx responses other than 401/403.
// It is propagated to the caller as-is; the client never retries.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: HTTP %d", e.StatusCode)
}

// IsNotFound reports whether err is an API error with status 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
