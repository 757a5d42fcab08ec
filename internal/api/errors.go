package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// TransportError is a network-level failure: the request never produced an
// HTTP response (connection refused, DNS failure, timeout, cancellation).
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: request failed: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was a timeout or deadline.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// DecodeError means a successful response carried a body that is not JSON.
type DecodeError struct {
	StatusCode int
	Snippet    string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unexpected API response format (status %d, JSON decode failed): %v", e.StatusCode, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// APIError describes a non-2xx response. The client returns such responses
// as plain Results; APIError is built on demand by Result.Err.
type APIError struct {
	StatusCode int
	Body       any
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// ErrInvalidArgument marks caller mistakes detected before any request is sent.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrImageNotFound is returned by ImageURL when the product has no matching image.
var ErrImageNotFound = errors.New("image not found in product")

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// IsTransportError checks if the error is a network-level failure.
func IsTransportError(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// IsDecodeError checks if the error is a response decoding failure.
func IsDecodeError(err error) bool {
	var e *DecodeError
	return errors.As(err, &e)
}

// IsNotFoundError checks if the error indicates a resource was not found.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404 ||
			strings.Contains(strings.ToLower(apiErr.Message), "not found")
	}
	return errors.Is(err, ErrImageNotFound)
}
