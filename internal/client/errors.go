package client

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when the server no longer knows the message id.
	ErrNotFound = errors.New("message not found")
	// ErrEmptyMessage is returned for a blank send or edit. No request is made.
	ErrEmptyMessage = errors.New("message text is empty")
)

// ValidationError is a request the server rejected as invalid input.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed: " + e.Message
	}
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

// TransportError wraps a network failure or a response that could not be decoded.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is an unexpected HTTP status. A 404 for an unknown route, e.g. a wrong
// server base path, is reported as a StatusError rather than ErrNotFound.
type StatusError struct {
	Op         string
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Message)
}

// RefreshError means a write was applied but the snapshot fetch that followed it failed.
// The local snapshot is stale until the next successful refresh.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return "refresh after write: " + e.Err.Error()
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// IsRefresh reports whether err is a *RefreshError, i.e. the write itself succeeded.
func IsRefresh(err error) bool {
	var rerr *RefreshError
	return errors.As(err, &rerr)
}
