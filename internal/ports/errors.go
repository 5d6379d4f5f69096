package ports

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by a Fetcher used before Connect (or after Close).
var ErrNotConnected = errors.New("not connected")

// UnexpectedStatusError reports a non-200 response where one was mandatory.
type UnexpectedStatusError struct {
	URL    string
	Status int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Status, e.URL)
}

// ConnectionError reports a transport-level failure: host unreachable, or a
// connection broken mid-response.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.URL == "" {
		return "connection error: " + e.Err.Error()
	}
	return fmt.Sprintf("connection error for %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
