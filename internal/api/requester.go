package api

import (
	"context"
	"net/url"
)

// Requester is the request surface that resource helpers with logic of their
// own (the image URL derivation) depend on. It lets tests substitute the
// transport without an HTTP server.
type Requester interface {
	// call executes one request against the versioned API root.
	call(ctx context.Context, ep endpoint, vars pathVars, q url.Values, body *requestBody) (*Result, error)

	// resolve returns the absolute URL of a path below the versioned API root.
	resolve(path string) (*url.URL, error)

	// Config returns the client settings.
	Config() Config
}

// Compile-time interface implementation check
var _ Requester = (*Client)(nil)
