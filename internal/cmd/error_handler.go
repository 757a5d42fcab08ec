package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cognitivefashion/fashion-cli/internal/api"
	"github.com/cognitivefashion/fashion-cli/internal/config"
)

// HandleError processes an error and returns a user-friendly message with suggestions
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder

	var apiErr *api.APIError
	var transportErr *api.TransportError
	var decodeErr *api.DecodeError
	var validationErr *config.ValidationError
	var hint *hintError

	switch {
	case errors.Is(err, config.ErrNotConfigured):
		msg.WriteString("Not authenticated.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: fashion auth login\n")
		msg.WriteString("  - Or set FASHION_API_URL and FASHION_API_KEY\n")

	case errors.As(err, &apiErr):
		fmt.Fprintf(&msg, "API error (HTTP %d): %s\n\n", apiErr.StatusCode, apiErr.Message)
		msg.WriteString(suggestionsForStatusCode(apiErr.StatusCode))
		if errors.As(err, &hint) {
			fmt.Fprintf(&msg, "\n%s\n", hint.hint)
		}
		if apiErr.RequestID != "" {
			fmt.Fprintf(&msg, "\nRequest ID: %s\n", apiErr.RequestID)
		}

	case errors.As(err, &transportErr):
		if transportErr.Timeout() {
			msg.WriteString("Request timed out.\n\n")
		} else {
			fmt.Fprintf(&msg, "Could not reach the API: %v\n\n", transportErr.Err)
		}
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Verify the gateway URL: fashion auth status\n")
		msg.WriteString("  - Check your network connection\n")
		if transportErr.Timeout() {
			msg.WriteString("  - Raise --timeout for slow operations such as index builds\n")
		}

	case errors.As(err, &decodeErr):
		fmt.Fprintf(&msg, "Unexpected response (HTTP %d) is not JSON.\n\n", decodeErr.StatusCode)
		if decodeErr.Snippet != "" {
			fmt.Fprintf(&msg, "Response starts with: %s\n\n", decodeErr.Snippet)
		}
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check the base URL and --api-version\n")

	case errors.As(err, &validationErr):
		fmt.Fprintf(&msg, "Invalid configuration: %s\n", validationErr.Error())

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}

func suggestionsForStatusCode(code int) string {
	var suggestions strings.Builder
	suggestions.WriteString("Suggestions:\n")

	switch {
	case code == 400:
		suggestions.WriteString("  - Check your request parameters\n")
		suggestions.WriteString("  - Use --debug to see the full request\n")
	case code == 401:
		suggestions.WriteString("  - Your API key may be invalid\n")
		suggestions.WriteString("  - Run: fashion auth login\n")
	case code == 403:
		suggestions.WriteString("  - Your API key lacks permission for this action\n")
	case code == 404:
		suggestions.WriteString("  - Check the catalog name and product id\n")
		suggestions.WriteString("  - List catalogs: fashion catalog names\n")
	case code == 429:
		suggestions.WriteString("  - Too many requests; wait and retry\n")
	case code >= 500:
		suggestions.WriteString("  - Server error; retry later\n")
	default:
		suggestions.WriteString("  - Use --debug for more details\n")
	}

	return suggestions.String()
}

// hintError attaches a follow-up hint to an error without changing how it
// is classified.
type hintError struct {
	err  error
	hint string
}

func (e *hintError) Error() string { return e.err.Error() }
func (e *hintError) Unwrap() error { return e.err }
