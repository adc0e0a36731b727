package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrStaleResponse marks a reply that arrived after a newer request was
	// issued by the same fetcher. It is never shown to the user.
	ErrStaleResponse = errors.New("stale response")

	// ErrViewNotFound is returned when a saved view id is unknown.
	ErrViewNotFound = errors.New("saved view not found")

	// ErrNotLoggedIn is returned by operations that need a session.
	ErrNotLoggedIn = errors.New("not logged in")
)

// ValidationError is bad or missing user input. It is handled locally and
// never reaches the backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NetworkError is a transport failure or timeout talking to the backend.
// The user may retry it.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// BackendError is a non-2xx reply. Message carries the backend's own text.
type BackendError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, e.Message)
}

// NotFound reports a 404 from the backend.
func (e *BackendError) NotFound() bool { return e.Status == http.StatusNotFound }

// Unauthorized reports a rejected or missing token.
func (e *BackendError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}
