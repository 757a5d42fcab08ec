package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// Result is the outcome of one API call: the HTTP status and the decoded
// response body, passed through without interpretation.
type Result struct {
	StatusCode int
	Header     http.Header
	// Body is the decoded JSON document, or nil when the response body is
	// empty or (for non-2xx responses only) not JSON.
	Body any
	// Raw holds the undecoded response bytes.
	Raw []byte
}

func newResult(status int, header http.Header, raw []byte) (*Result, error) {
	res := &Result{StatusCode: status, Header: header, Raw: raw}
	if len(bytes.TrimSpace(raw)) == 0 {
		return res, nil
	}
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		if res.OK() {
			return nil, &DecodeError{StatusCode: status, Snippet: snippet(raw), Err: err}
		}
		// Error payloads that are not JSON are kept only in Raw.
		return res, nil
	}
	res.Body = body
	return res, nil
}

// OK reports whether the status code is 2xx.
func (r *Result) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Err returns an *APIError describing a non-2xx result, or nil. The client
// never calls it itself; it exists for callers that prefer error values.
func (r *Result) Err() error {
	if r == nil || r.OK() {
		return nil
	}
	return &APIError{
		StatusCode: r.StatusCode,
		Body:       r.Body,
		Message:    errorMessage(r),
		RequestID:  requestIDFromHeader(r.Header),
	}
}

// Decode unmarshals the raw body into v.
func (r *Result) Decode(v any) error {
	if r == nil || len(bytes.TrimSpace(r.Raw)) == 0 {
		return fmt.Errorf("empty response body")
	}
	if err := json.Unmarshal(r.Raw, v); err != nil {
		return &DecodeError{StatusCode: r.StatusCode, Snippet: snippet(r.Raw), Err: err}
	}
	return nil
}

func requestIDFromHeader(header http.Header) string {
	if header == nil {
		return ""
	}
	return header.Get(HeaderRequestID)
}

// errorMessage pulls a human readable message out of an error payload without
// echoing the whole body.
func errorMessage(r *Result) string {
	if m, ok := r.Body.(map[string]any); ok {
		for _, key := range []string{"error", "message", "detail", "status"} {
			switch v := m[key].(type) {
			case string:
				if v != "" {
					return v
				}
			case map[string]any:
				if msg, ok := v["message"].(string); ok && msg != "" {
					return msg
				}
			}
		}
	}
	if text := http.StatusText(r.StatusCode); text != "" {
		return text
	}
	return "API request failed"
}

const maxSnippet = 200

func snippet(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) > maxSnippet {
		return string(raw[:maxSnippet]) + "..."
	}
	return string(raw)
}
