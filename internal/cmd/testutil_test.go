package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/99designs/keyring"

	"github.com/cognitivefashion/fashion-cli/internal/config"
	"github.com/cognitivefashion/fashion-cli/internal/iocontext"
)

const testAPIKey = "test-key-0123456789"

// cliRun is the outcome of one Execute call.
type cliRun struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes the command line with captured streams and stdin.
func runCLI(t *testing.T, stdin string, args ...string) cliRun {
	t.Helper()
	var out, errOut bytes.Buffer
	ctx := iocontext.WithIO(context.Background(), &iocontext.IO{
		Out:    &out,
		ErrOut: &errOut,
		In:     strings.NewReader(stdin),
	})
	err := Execute(ctx, args)
	return cliRun{stdout: out.String(), stderr: errOut.String(), err: err}
}

// setupTestServer starts a server for handler and points FASHION_API_URL and
// FASHION_API_KEY at it.
func setupTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Setenv("FASHION_API_URL", server.URL)
	t.Setenv("FASHION_API_KEY", testAPIKey)
	t.Setenv("FASHION_OUTPUT", "text")
	return server
}

// withPersistentKeyring keeps profiles across Execute calls within a test.
func withPersistentKeyring(t *testing.T) {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	t.Cleanup(config.SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	}))
}

func jsonResponse(statusCode int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	}
}

// routeHandler routes by exact "METHOD PATH" and records every request.
// Unknown routes answer 404.
type routeHandler struct {
	routes map[string]http.HandlerFunc

	mu       sync.Mutex
	requests []*http.Request
}

func newRouteHandler() *routeHandler {
	return &routeHandler{routes: make(map[string]http.HandlerFunc)}
}

func (rh *routeHandler) On(method, path string, handler http.HandlerFunc) *routeHandler {
	rh.routes[method+" "+path] = handler
	return rh
}

func (rh *routeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rh.mu.Lock()
	rh.requests = append(rh.requests, r.Clone(context.Background()))
	rh.mu.Unlock()

	if handler, ok := rh.routes[r.Method+" "+r.URL.Path]; ok {
		handler(w, r)
		return
	}
	http.NotFound(w, r)
}

// last returns the most recent request to method and path, or nil.
func (rh *routeHandler) last(method, path string) *http.Request {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	for i := len(rh.requests) - 1; i >= 0; i-- {
		if r := rh.requests[i]; r.Method == method && r.URL.Path == path {
			return r
		}
	}
	return nil
}

func (rh *routeHandler) count(method, path string) int {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	n := 0
	for _, r := range rh.requests {
		if r.Method == method && r.URL.Path == path {
			n++
		}
	}
	return n
}
