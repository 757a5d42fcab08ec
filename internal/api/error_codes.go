package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents machine-readable error codes for scripted callers.
type ErrorCode string

const (
	// ErrBadRequest indicates a malformed request (HTTP 400).
	ErrBadRequest ErrorCode = "bad_request"
	// ErrUnauthorized indicates a missing or invalid API key (HTTP 401).
	ErrUnauthorized ErrorCode = "unauthorized"
	// ErrForbidden indicates the key lacks permission (HTTP 403).
	ErrForbidden ErrorCode = "forbidden"
	// ErrNotFound indicates the catalog, product or image does not exist (HTTP 404).
	ErrNotFound ErrorCode = "not_found"
	// ErrConflict indicates a conflict with current state (HTTP 409).
	ErrConflict ErrorCode = "conflict"
	// ErrValidation indicates input validation failed (HTTP 422 or local checks).
	ErrValidation ErrorCode = "validation_failed"
	// ErrRateLimited indicates too many requests (HTTP 429).
	ErrRateLimited ErrorCode = "rate_limited"
	// ErrServerError indicates an internal server error (HTTP 5xx).
	ErrServerError ErrorCode = "server_error"
	// ErrTimeout indicates the request timed out.
	ErrTimeout ErrorCode = "timeout"
	// ErrNetwork indicates the gateway could not be reached.
	ErrNetwork ErrorCode = "network"
	// ErrDecode indicates the response body was not valid JSON.
	ErrDecode ErrorCode = "decode"
	// ErrUnknown indicates an unknown or unclassified error.
	ErrUnknown ErrorCode = "unknown"
)

// IsRetryable returns true if errors with this code may succeed when the
// caller tries again. The client itself never retries.
func (c ErrorCode) IsRetryable() bool {
	switch c {
	case ErrRateLimited, ErrServerError, ErrTimeout, ErrNetwork:
		return true
	default:
		return false
	}
}

// Suggestion returns a human-readable suggestion for resolving this error.
func (c ErrorCode) Suggestion() string {
	switch c {
	case ErrUnauthorized:
		return "Run 'fashion auth login' with a valid API key"
	case ErrForbidden:
		return "Check the permissions of your API key"
	case ErrNotFound:
		return "Verify the catalog name and product id ('fashion catalog names')"
	case ErrRateLimited:
		return "Wait a moment and retry"
	case ErrValidation:
		return "Check the input values"
	case ErrBadRequest:
		return "Check the request parameters"
	case ErrConflict:
		return "The resource state may have changed; check it and retry"
	case ErrServerError:
		return "The service encountered an error; try again later"
	case ErrTimeout:
		return "The request timed out; raise --timeout or check connectivity"
	case ErrNetwork:
		return "Check the gateway URL ('fashion auth status') and your network"
	case ErrDecode:
		return "The gateway returned a non-JSON body; check the base URL and API version"
	default:
		return ""
	}
}

// ErrorCodeFromStatus maps an HTTP status code to an ErrorCode.
func ErrorCodeFromStatus(statusCode int) ErrorCode {
	switch statusCode {
	case 400:
		return ErrBadRequest
	case 401:
		return ErrUnauthorized
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 409:
		return ErrConflict
	case 422:
		return ErrValidation
	case 429:
		return ErrRateLimited
	default:
		if statusCode >= 500 && statusCode < 600 {
			return ErrServerError
		}
		return ErrUnknown
	}
}

// StructuredError provides machine-readable error information.
type StructuredError struct {
	Code          ErrorCode      `json:"code"`
	Message       string         `json:"message"`
	Retryable     bool           `json:"retryable"`
	Suggestion    string         `json:"suggestion,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
	AllowedValues []string       `json:"allowed_values,omitempty"`
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// MarshalJSON implements custom JSON marshaling.
func (e *StructuredError) MarshalJSON() ([]byte, error) {
	type Alias StructuredError
	return json.Marshal((*Alias)(e))
}

// NewStructuredError creates a StructuredError from an ErrorCode and message.
func NewStructuredError(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:       code,
		Message:    message,
		Retryable:  code.IsRetryable(),
		Suggestion: code.Suggestion(),
	}
}

// NewValidationError creates a StructuredError for input validation failures,
// including the list of allowed values so callers can self-correct.
func NewValidationError(field string, got string, allowed []string) *StructuredError {
	return &StructuredError{
		Code:          ErrValidation,
		Message:       fmt.Sprintf("invalid %s %q: must be one of %s", field, got, strings.Join(allowed, ", ")),
		Retryable:     false,
		Suggestion:    fmt.Sprintf("Use one of: %s", strings.Join(allowed, ", ")),
		AllowedValues: allowed,
		Context:       map[string]any{"field": field, "got": got},
	}
}

// StructuredErrorFromAPIError converts an APIError to a StructuredError.
func StructuredErrorFromAPIError(apiErr *APIError) *StructuredError {
	code := ErrorCodeFromStatus(apiErr.StatusCode)
	ctx := map[string]any{
		"status_code": apiErr.StatusCode,
	}
	if apiErr.RequestID != "" {
		ctx["request_id"] = apiErr.RequestID
	}
	if apiErr.Body != nil {
		ctx["body"] = apiErr.Body
	}
	return &StructuredError{
		Code:       code,
		Message:    apiErr.Message,
		Retryable:  code.IsRetryable(),
		Suggestion: code.Suggestion(),
		Context:    ctx,
	}
}

// StructuredErrorFromError attempts to convert any error to a StructuredError.
func StructuredErrorFromError(err error) *StructuredError {
	if err == nil {
		return nil
	}

	var se *StructuredError
	if errors.As(err, &se) {
		return se
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return StructuredErrorFromAPIError(apiErr)
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		code := ErrNetwork
		if transportErr.Timeout() {
			code = ErrTimeout
		}
		return &StructuredError{
			Code:       code,
			Message:    transportErr.Error(),
			Retryable:  code.IsRetryable(),
			Suggestion: code.Suggestion(),
		}
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return &StructuredError{
			Code:       ErrDecode,
			Message:    decodeErr.Error(),
			Suggestion: ErrDecode.Suggestion(),
			Context:    map[string]any{"status_code": decodeErr.StatusCode, "body": decodeErr.Snippet},
		}
	}

	if errors.Is(err, ErrInvalidArgument) {
		return &StructuredError{
			Code:       ErrValidation,
			Message:    err.Error(),
			Suggestion: ErrValidation.Suggestion(),
		}
	}

	if errors.Is(err, ErrImageNotFound) {
		return &StructuredError{
			Code:       ErrNotFound,
			Message:    err.Error(),
			Suggestion: ErrNotFound.Suggestion(),
		}
	}

	return &StructuredError{
		Code:    ErrUnknown,
		Message: err.Error(),
	}
}
