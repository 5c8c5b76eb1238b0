package posthogtest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"
)

// CapturedEvent is an event received by the MockServer.
type CapturedEvent struct {
	UUID       string         `json:"uuid"`
	Event      string         `json:"event"`
	DistinctID string         `json:"distinct_id"`
	Properties map[string]any `json:"properties"`
	Timestamp  string         `json:"timestamp"`
	APIKey     string         `json:"api_key"`
}

// RecordedRequest represents a recorded HTTP request.
type RecordedRequest struct {
	Method      string
	Path        string
	Query       string
	Body        []byte
	ContentType string
}

// MockServer is a PostHog-compatible test server that records requests and
// the events they carry.
type MockServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []*RecordedRequest
	events   []CapturedEvent
	flags    map[string]any

	// ResponseFunc overrides the response for /batch/ and /capture/.
	// If nil, {"status": 1} is returned.
	ResponseFunc func(r *http.Request) (int, any)
}

// NewMockServer creates and starts a new mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{flags: make(map[string]any)}

	r := chi.NewRouter()
	r.Use(ms.record)

	r.Post("/batch", ms.handleBatch)
	r.Post("/batch/", ms.handleBatch)
	r.Post("/capture", ms.handleCapture)
	r.Post("/capture/", ms.handleCapture)
	r.Post("/e", ms.handleCapture)
	r.Post("/e/", ms.handleCapture)
	r.Post("/decide", ms.handleDecide)
	r.Post("/decide/", ms.handleDecide)

	ms.Server = httptest.NewServer(r)
	return ms
}

// record stores every request and restores its body for the handler.
func (ms *MockServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()

		ms.mu.Lock()
		ms.requests = append(ms.requests, &RecordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			Query:       r.URL.RawQuery,
			Body:        body,
			ContentType: r.Header.Get("Content-Type"),
		})
		ms.mu.Unlock()

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (ms *MockServer) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string          `json:"api_key"`
		Batch  []CapturedEvent `json:"batch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": 0, "error": "Invalid request body: " + err.Error()})
		return
	}

	if ms.respondCustom(w, r) {
		return
	}

	ms.mu.Lock()
	for _, evt := range req.Batch {
		if evt.APIKey == "" {
			evt.APIKey = req.APIKey
		}
		ms.events = append(ms.events, evt)
	}
	ms.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"status": 1})
}

func (ms *MockServer) handleCapture(w http.ResponseWriter, r *http.Request) {
	var evt CapturedEvent
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": 0, "error": "Invalid request body: " + err.Error()})
		return
	}
	if evt.Event == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": 0, "error": "event field is required"})
		return
	}

	if ms.respondCustom(w, r) {
		return
	}

	ms.mu.Lock()
	ms.events = append(ms.events, evt)
	ms.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"status": 1})
}

func (ms *MockServer) handleDecide(w http.ResponseWriter, r *http.Request) {
	ms.mu.Lock()
	flags := make(map[string]any, len(ms.flags))
	payloads := make(map[string]any, len(ms.flags))
	for k, v := range ms.flags {
		flags[k] = v
		payloads[k] = nil
	}
	ms.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"featureFlags":              flags,
		"featureFlagPayloads":       payloads,
		"errorsWhileComputingFlags": false,
	})
}

func (ms *MockServer) respondCustom(w http.ResponseWriter, r *http.Request) bool {
	ms.mu.Lock()
	fn := ms.ResponseFunc
	ms.mu.Unlock()
	if fn == nil {
		return false
	}
	status, body := fn(r)
	if status < 400 {
		return false
	}
	writeJSON(w, status, body)
	return true
}

// SetFlag sets the value /decide/ returns for a feature flag: a bool or a
// variant string.
func (ms *MockServer) SetFlag(key string, value any) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.flags[key] = value
}

// SetResponseFunc sets the response function for batch and capture
// requests. Responses with a status below 400 fall through to the default
// handling so events are still recorded.
func (ms *MockServer) SetResponseFunc(fn func(r *http.Request) (int, any)) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.ResponseFunc = fn
}

// RespondWithError makes ingestion requests fail with statusCode.
func (ms *MockServer) RespondWithError(statusCode int, message string) {
	ms.SetResponseFunc(func(r *http.Request) (int, any) {
		return statusCode, map[string]any{"type": "server_error", "detail": message}
	})
}

// RespondWithUnauthorized makes ingestion requests fail the way PostHog
// rejects an unknown project key.
func (ms *MockServer) RespondWithUnauthorized() {
	ms.SetResponseFunc(func(r *http.Request) (int, any) {
		return http.StatusUnauthorized, map[string]any{
			"type":   "authentication_error",
			"code":   "invalid_api_key",
			"detail": "Project API key invalid. You can find your project API key in PostHog project settings.",
		}
	})
}

// RespondWithSuccess restores the default responses.
func (ms *MockServer) RespondWithSuccess() {
	ms.SetResponseFunc(nil)
}

// Events returns every event received so far.
func (ms *MockServer) Events() []CapturedEvent {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]CapturedEvent{}, ms.events...)
}

// EventsNamed returns the received events with the given name.
func (ms *MockServer) EventsNamed(name string) []CapturedEvent {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var matched []CapturedEvent
	for _, evt := range ms.events {
		if evt.Event == name {
			matched = append(matched, evt)
		}
	}
	return matched
}

// Requests returns all recorded requests.
func (ms *MockServer) Requests() []*RecordedRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]*RecordedRequest{}, ms.requests...)
}

// RequestCount returns the number of recorded requests.
func (ms *MockServer) RequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.requests)
}

// RequestsWithPath returns all requests that matched the given path.
func (ms *MockServer) RequestsWithPath(path string) []*RecordedRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var matched []*RecordedRequest
	for _, req := range ms.requests {
		if req.Path == path {
			matched = append(matched, req)
		}
	}
	return matched
}

// Reset clears recorded requests and events. Flags are kept.
func (ms *MockServer) Reset() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.requests = nil
	ms.events = nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
