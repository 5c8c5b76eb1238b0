package posthog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// TestMain runs goleak verification for all tests in the package.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("testing.(*T).Run"),
		goleak.IgnoreTopFunction("testing.(*T).Parallel"),
		// HTTP transport goroutines from connection pooling
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// ingestServer is a minimal PostHog endpoint for tests in this package.
type ingestServer struct {
	*httptest.Server

	mu       sync.Mutex
	batches  []batchPayload
	decides  []decideRequest
	queries  []string
	agents   []string
	flags    map[string]any
	status   func(path string, attempt int) int
	attempts map[string]int
}

func newIngestServer(t *testing.T) *ingestServer {
	t.Helper()
	s := &ingestServer{
		flags:    map[string]any{},
		attempts: map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *ingestServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.attempts[r.URL.Path]++
	attempt := s.attempts[r.URL.Path]
	s.agents = append(s.agents, r.Header.Get("User-Agent"))
	statusFn := s.status
	s.mu.Unlock()

	if statusFn != nil {
		if code := statusFn(r.URL.Path, attempt); code >= 400 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(code)
			_, _ = io.WriteString(w, `{"type":"validation_error","detail":"rejected by test server"}`)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasPrefix(r.URL.Path, endpointBatch):
		var p batchPayload
		_ = json.Unmarshal(body, &p)
		s.mu.Lock()
		s.batches = append(s.batches, p)
		s.mu.Unlock()
		_, _ = io.WriteString(w, `{"status":1}`)
	case strings.HasPrefix(r.URL.Path, endpointDecide):
		var d decideRequest
		_ = json.Unmarshal(body, &d)
		s.mu.Lock()
		s.decides = append(s.decides, d)
		s.queries = append(s.queries, r.URL.RawQuery)
		flags := s.flags
		s.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"featureFlags": flags})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *ingestServer) events() []captureEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []captureEvent
	for _, b := range s.batches {
		out = append(out, b.Batch...)
	}
	return out
}

func (s *ingestServer) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func (s *ingestServer) attemptsFor(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[path]
}

func (s *ingestServer) setFlags(flags map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags = flags
}

func (s *ingestServer) setStatus(fn func(path string, attempt int) int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = fn
}

// testClient creates a client against s with decide disabled unless opts
// turn it back on.
func testClient(t *testing.T, s *ingestServer, opts ...ConfigOption) *Client {
	t.Helper()
	base := []ConfigOption{
		WithAPIHost(s.URL),
		WithDisableDecide(true),
		WithFlushInterval(time.Hour),
		WithRetryDelay(time.Millisecond),
		WithTimeout(2 * time.Second),
	}
	client, err := Init("phc_test_key", append(base, opts...)...)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return client
}

func TestClientShutdown_NoLeaks(t *testing.T) {
	s := newIngestServer(t)
	client := testClient(t, s, WithDisableDecide(false))

	<-client.Loaded()
	for i := 0; i < 10; i++ {
		if err := client.Capture(context.Background(), "leak_check", nil); err != nil {
			t.Fatalf("Capture failed: %v", err)
		}
	}

	if err := client.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if got := len(s.events()); got != 10 {
		t.Errorf("expected 10 events delivered, got %d", got)
	}
}

func TestClientBackgroundSends_NoLeaks(t *testing.T) {
	s := newIngestServer(t)
	client := testClient(t, s, WithBatchSize(2), WithBatchQueueSize(1))

	for i := 0; i < 20; i++ {
		if err := client.Capture(context.Background(), "burst", nil); err != nil {
			t.Fatalf("Capture failed: %v", err)
		}
	}

	if err := client.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if got := len(s.events()); got != 20 {
		t.Errorf("expected 20 events delivered, got %d", got)
	}
}
