package posthogtest

import (
	"context"
	"time"

	posthog "github.com/jdziat/posthog-go"
)

// TestingT is an interface that matches *testing.T and *testing.B.
type TestingT interface {
	Fatalf(format string, args ...any)
	Cleanup(func())
	Helper()
}

// TestAPIKey is the default test project key.
const TestAPIKey = "phc_test_project_key"

// NewTestClient creates a real client pointed at a MockServer.
// Base options (mock server host, large batch size, long flush interval) are
// applied first, then opts. Both are cleaned up when the test ends.
func NewTestClient(t TestingT, opts ...posthog.ConfigOption) (*posthog.Client, *MockServer) {
	t.Helper()

	server := NewMockServer()

	baseOpts := []posthog.ConfigOption{
		posthog.WithAPIHost(server.URL),
		posthog.WithBatchSize(1000),
		posthog.WithFlushInterval(time.Hour),
		posthog.WithTimeout(5 * time.Second),
		posthog.WithRetryDelay(10 * time.Millisecond),
	}

	client, err := posthog.Init(TestAPIKey, append(baseOpts, opts...)...)
	if err != nil {
		server.Close()
		t.Fatalf("Failed to create test client: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Shutdown(context.Background())
		server.Close()
	})

	return client, server
}
