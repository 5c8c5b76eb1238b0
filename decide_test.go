package posthog

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestReloadFeatureFlags_OnInit(t *testing.T) {
	s := newIngestServer(t)
	s.setFlags(map[string]any{
		"beta-dashboard": true,
		"checkout":       "variant-b",
		"legacy-nav":     false,
	})
	metrics := newCountingMetrics()

	client := testClient(t, s,
		WithDisableDecide(false),
		WithDistinctID("user-1"),
		WithMetrics(metrics),
	)
	defer shutdown(t, client)
	<-client.Loaded()

	s.mu.Lock()
	decides := append([]decideRequest(nil), s.decides...)
	queries := append([]string(nil), s.queries...)
	s.mu.Unlock()

	if len(decides) != 1 {
		t.Fatalf("expected 1 decide request, got %d", len(decides))
	}
	if decides[0].APIKey != "phc_test_key" || decides[0].Token != "phc_test_key" || decides[0].DistinctID != "user-1" {
		t.Errorf("unexpected decide body: %+v", decides[0])
	}
	if queries[0] != "v=3" {
		t.Errorf("query = %q, want v=3", queries[0])
	}

	tests := []struct {
		key     string
		enabled bool
	}{
		{"beta-dashboard", true},
		{"checkout", true},
		{"legacy-nav", false},
		{"unknown", false},
	}
	for _, tt := range tests {
		if got := client.IsFeatureEnabled(tt.key); got != tt.enabled {
			t.Errorf("IsFeatureEnabled(%q) = %v, want %v", tt.key, got, tt.enabled)
		}
	}

	value, ok := client.FeatureFlag("checkout")
	if !ok || value != "variant-b" {
		t.Errorf("FeatureFlag(checkout) = %v, %v", value, ok)
	}
	if _, ok := client.FeatureFlag("unknown"); ok {
		t.Error("unknown flag reported as present")
	}
}

func TestReloadFeatureFlags_ReplacesCache(t *testing.T) {
	s := newIngestServer(t)
	s.setFlags(map[string]any{"first": true})

	client := testClient(t, s, WithDisableDecide(false))
	defer shutdown(t, client)
	<-client.Loaded()

	s.setFlags(map[string]any{"second": true})

	if err := client.ReloadFeatureFlags(context.Background()); err != nil {
		t.Fatalf("ReloadFeatureFlags failed: %v", err)
	}

	flags := client.FeatureFlags()
	if len(flags) != 1 || flags["second"] != true {
		t.Errorf("FeatureFlags() = %v", flags)
	}

	flags["injected"] = true
	if _, ok := client.FeatureFlag("injected"); ok {
		t.Error("FeatureFlags should return a copy")
	}
}

func TestDecideFailure_IsNonFatal(t *testing.T) {
	s := newIngestServer(t)
	s.setStatus(func(path string, _ int) int {
		if path == endpointDecide {
			return http.StatusInternalServerError
		}
		return 0
	})
	logger := &recordingLogger{}

	loaded := make(chan struct{}, 1)
	client := testClient(t, s,
		WithDisableDecide(false),
		WithStructuredLogger(logger),
		WithLoaded(func(Analytics) { loaded <- struct{}{} }),
	)
	defer shutdown(t, client)

	select {
	case <-loaded:
	case <-time.After(time.Second):
		t.Fatal("loaded hook should run even when decide fails")
	}

	if len(client.FeatureFlags()) != 0 {
		t.Error("expected no flags after a failed decide")
	}
	if logger.count("WARN decide request failed, continuing without feature flags") != 1 {
		t.Error("expected decide failure to be logged")
	}
}

func TestDisableDecide(t *testing.T) {
	s := newIngestServer(t)
	client := testClient(t, s)
	<-client.Loaded()
	shutdown(t, client)

	if got := s.attemptsFor(endpointDecide); got != 0 {
		t.Errorf("expected no decide requests, got %d", got)
	}
}

func TestIsFeatureEnabled_NonBoolValue(t *testing.T) {
	s := newIngestServer(t)
	client := testClient(t, s)
	defer shutdown(t, client)

	client.flagsMu.Lock()
	client.flags = map[string]any{"numeric": 1.0, "empty-variant": ""}
	client.flagsMu.Unlock()

	if client.IsFeatureEnabled("numeric") {
		t.Error("numeric flag values are not enabled")
	}
	if client.IsFeatureEnabled("empty-variant") {
		t.Error("empty variant is not enabled")
	}
}
