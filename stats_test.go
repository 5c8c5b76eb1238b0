package posthog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStats(t *testing.T) {
	s := newIngestServer(t)
	client := testClient(t, s,
		WithDistinctID("user-9"),
		WithBatchSize(10),
		WithBatchQueueSize(5),
	)
	defer shutdown(t, client)
	<-client.Loaded()

	for i := 0; i < 2; i++ {
		if err := client.Capture(context.Background(), "counted", nil); err != nil {
			t.Fatalf("Capture failed: %v", err)
		}
	}

	stats := client.Stats()
	if stats.State != "active" || !stats.Loaded {
		t.Errorf("unexpected state: %+v", stats)
	}
	if stats.DistinctID != "user-9" {
		t.Errorf("DistinctID = %q", stats.DistinctID)
	}
	if stats.PendingEvents != 2 {
		t.Errorf("PendingEvents = %d, want 2", stats.PendingEvents)
	}
	if stats.QueueCapacity != 50 {
		t.Errorf("QueueCapacity = %d, want 50", stats.QueueCapacity)
	}
	if stats.QueueUtilization != 0.04 {
		t.Errorf("QueueUtilization = %v, want 0.04", stats.QueueUtilization)
	}
	if stats.UptimeNanos <= 0 {
		t.Errorf("UptimeNanos = %d", stats.UptimeNanos)
	}
}

func TestStatsHandler(t *testing.T) {
	s := newIngestServer(t)
	client := testClient(t, s)
	defer shutdown(t, client)

	rec := httptest.NewRecorder()
	client.StatsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/posthog", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var stats ClientStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if stats.DistinctID != client.DistinctID() {
		t.Errorf("DistinctID = %q", stats.DistinctID)
	}

	rec = httptest.NewRecorder()
	client.StatsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/posthog", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	s := newIngestServer(t)
	client := testClient(t, s)

	check := func(wantCode int, wantStatus, wantState string) {
		t.Helper()
		rec := httptest.NewRecorder()
		client.HealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != wantCode {
			t.Errorf("status code = %d, want %d", rec.Code, wantCode)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if body["status"] != wantStatus || body["state"] != wantState {
			t.Errorf("body = %v", body)
		}
	}

	check(http.StatusOK, "healthy", "active")
	shutdown(t, client)
	check(http.StatusServiceUnavailable, "unhealthy", "closed")
}
