// Package testutil provides test helpers shared by k-releaser packages:
// throwaway git repositories with a bare remote and a fake forge API server.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Request is one request seen by a FakeForge.
type Request struct {
	Method string
	Path   string
	Query  string
	Auth   string
	// Body is the decoded JSON request body, nil when empty.
	Body map[string]any
}

// Response is a canned FakeForge response. A zero Status means 200.
type Response struct {
	Status int
	Body   string
}

// FakeForge serves canned JSON responses keyed by "METHOD /path" and
// records every request. Unknown routes return 404.
type FakeForge struct {
	mu        sync.Mutex
	requests  []Request
	responses map[string]Response
	srv       *httptest.Server
}

// NewFakeForge starts a FakeForge that is closed when the test ends.
func NewFakeForge(t *testing.T, responses map[string]Response) *FakeForge {
	t.Helper()
	f := &FakeForge{responses: responses}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *FakeForge) serve(w http.ResponseWriter, r *http.Request) {
	req := Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
	}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &req.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	resp, ok := f.responses[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, resp.Body)
}

// URL is the base URL of the server.
func (f *FakeForge) URL() string {
	return f.srv.URL
}

// Calls returns the requests received so far, oldest first.
func (f *FakeForge) Calls() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}
