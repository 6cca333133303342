package cards

import (
	"errors"
	"fmt"
	"time"
)

// ParseError reports a malformed decklist entry.
type ParseError struct {
	Input  string
	Reason string
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("invalid card entry: %s", e.Reason)
	}
	return fmt.Sprintf("invalid card entry %q: %s", e.Input, e.Reason)
}

// NotFoundError reports that no card matched a name after fetching.
type NotFoundError struct {
	Name string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("card not found: %s", e.Name)
}

// TimeoutError reports that the lookup of a single name exceeded its deadline.
type TimeoutError struct {
	Name    string
	Timeout time.Duration
}

// Error implements the error interface for TimeoutError.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("lookup of %q timed out after %v", e.Name, e.Timeout)
}

// TransportError reports a network or API failure. Inside a batch it fails
// the requests for its own name, or every request when no lookup of the
// batch got through.
type TransportError struct {
	Op  string
	Err error
}

// Error implements the error interface for TransportError.
func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch failed: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// StorageError reports a failure reading or writing the persistent store.
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface for StorageError.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsTimeout returns true if err is or wraps a TimeoutError.
func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

// IsTransport returns true if err is or wraps a TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsParse returns true if err is or wraps a ParseError.
func IsParse(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}
