package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cognitivefashion/fashion-cli/internal/debug"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultAPIVersion = "v1"
)

// Header names sent on every request.
const (
	HeaderAPIKey               = "X-Api-Key"
	HeaderDataCollectionOptOut = "X-Data-Collection-Opt-Out"
	HeaderRequestID            = "X-Request-Id"
)

// Config holds the connection settings of a Client. It is copied into the
// client at construction and never changes afterwards.
type Config struct {
	BaseURL              string
	APIKey               string
	APIVersion           string
	DataCollectionOptOut bool
	UserAgent            string
}

// Client is the Cognitive Fashion API client.
//
// Every operation performs exactly one HTTP round trip and hands the status
// code and decoded body back to the caller. Non-2xx responses are not errors;
// inspect Result.StatusCode or call Result.Err. A Client is safe for
// concurrent use.
type Client struct {
	cfg     Config
	header  http.Header
	http    *http.Client
	timeout *time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithAPIVersion sets the API version path segment (default "v1").
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		if v := strings.Trim(strings.TrimSpace(version), "/"); v != "" {
			c.cfg.APIVersion = v
		}
	}
}

// WithDataCollectionOptOut asks the service not to keep request data for
// model improvements.
func WithDataCollectionOptOut(optOut bool) Option {
	return func(c *Client) { c.cfg.DataCollectionOptOut = optOut }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.cfg.UserAgent = ua }
}

// WithHTTPClient replaces the underlying HTTP client. The client is never
// modified; WithTimeout applies to a copy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the HTTP client timeout. Zero disables it. It takes
// effect regardless of its position relative to WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = &d }
}

// New creates a client for the gateway at baseURL. No request is made and the
// URL is not validated here; a malformed URL is reported by the first call.
func New(baseURL, apiKey string, opts ...Option) *Client {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12

	c := &Client{
		cfg: Config{
			BaseURL:    baseURL,
			APIKey:     apiKey,
			APIVersion: DefaultAPIVersion,
		},
		http: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout != nil {
		hc := *c.http
		hc.Timeout = *c.timeout
		c.http = &hc
	}

	c.header = make(http.Header)
	c.header.Set(HeaderAPIKey, c.cfg.APIKey)
	c.header.Set(HeaderDataCollectionOptOut, strconv.FormatBool(c.cfg.DataCollectionOptOut))
	c.header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		c.header.Set("User-Agent", c.cfg.UserAgent)
	}
	return c
}

// Config returns a copy of the client's settings.
func (c *Client) Config() Config {
	return c.cfg
}

// baseURL parses the configured gateway URL as a directory so that relative
// endpoint paths are appended below any gateway prefix.
func (c *Client) baseURL() (*url.URL, error) {
	raw := strings.TrimSpace(c.cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("invalid base URL: empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: missing host", raw)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
		u.RawPath = ""
	}
	return u, nil
}

// resolve joins the versioned endpoint path onto the base URL.
func (c *Client) resolve(path string) (*url.URL, error) {
	base, err := c.baseURL()
	if err != nil {
		return nil, err
	}
	ref, err := url.Parse(c.cfg.APIVersion + "/" + strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint path %q: %w", path, err)
	}
	return base.ResolveReference(ref), nil
}

// requestBody is the optional payload of a call. size is the byte length
// when known from outside the reader; zero leaves it to net/http.
type requestBody struct {
	reader      io.Reader
	contentType string
	size        int64
}

func jsonBody(v any) (*requestBody, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return &requestBody{reader: bytes.NewReader(data), contentType: "application/json"}, nil
}

func rawBody(r io.Reader, contentType string, size int64) *requestBody {
	return &requestBody{reader: r, contentType: contentType, size: size}
}

// call is the single request routine behind every operation.
func (c *Client) call(ctx context.Context, ep endpoint, vars pathVars, q url.Values, body *requestBody) (*Result, error) {
	path, err := ep.expand(vars)
	if err != nil {
		return nil, err
	}
	u, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return c.execute(ctx, ep.method, u.String(), body)
}

func (c *Client) execute(ctx context.Context, method, rawURL string, body *requestBody) (*Result, error) {
	var reader io.Reader
	if body != nil {
		reader = body.reader
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil && body.size > 0 && req.ContentLength == 0 {
		req.ContentLength = body.size
	}

	req.Header = c.header.Clone()
	if body != nil && body.contentType != "" {
		req.Header.Set("Content-Type", body.contentType)
	}
	requestID := uuid.NewString()
	req.Header.Set(HeaderRequestID, requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if debug.IsEnabled(ctx) {
			slog.Debug("request failed", "method", method, "url", redactURL(rawURL), "request_id", requestID, "error", err)
		}
		return nil, &TransportError{Method: method, URL: redactURL(rawURL), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: redactURL(rawURL), Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if debug.IsEnabled(ctx) {
		slog.Debug("request complete", "method", method, "url", redactURL(rawURL), "status", resp.StatusCode, "request_id", requestID, "duration", time.Since(start))
	}

	return newResult(resp.StatusCode, resp.Header, respBody)
}

// redactURL hides the api_key query parameter before a URL is logged or
// embedded in an error.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// FashionQuote returns a random fashion quote. It doubles as a connectivity
// and credentials check and is shared by every resource group.
func (c *Client) FashionQuote(ctx context.Context) (*Result, error) {
	return c.call(ctx, epFashionQuote, nil, nil, nil)
}
