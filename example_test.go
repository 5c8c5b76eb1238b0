package posthog_test

import (
	"context"
	"fmt"
	"testing"

	posthog "github.com/jdziat/posthog-go"
	"github.com/jdziat/posthog-go/posthogtest"
)

func ExampleInit() {
	server := posthogtest.NewMockServer()
	defer server.Close()
	server.SetFlag("new-checkout", true)

	loaded := make(chan struct{})
	client, err := posthog.Init(posthogtest.TestAPIKey,
		posthog.WithAPIHost(server.URL),
		posthog.WithDistinctID("user-1"),
		posthog.WithLoaded(func(posthog.Analytics) { close(loaded) }),
	)
	if err != nil {
		fmt.Println("init failed:", err)
		return
	}
	<-loaded

	fmt.Println("new-checkout:", client.IsFeatureEnabled("new-checkout"))

	_ = client.Capture(context.Background(), "signed_up", posthog.Properties{"plan": "pro"})
	_ = client.Shutdown(context.Background())

	events := server.EventsNamed("signed_up")
	fmt.Println("captured:", len(events), events[0].Properties["plan"])
	// Output:
	// new-checkout: true
	// captured: 1 pro
}

func TestNewTestClient(t *testing.T) {
	client, server := posthogtest.NewTestClient(t, posthog.WithDisableDecide(true))

	if err := client.Capture(context.Background(), posthog.EventPageview, posthog.Properties{
		posthog.PropCurrentURL: "https://example.com/",
	}); err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if err := client.Flush(context.Background()); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	events := server.EventsNamed(posthog.EventPageview)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].APIKey != posthogtest.TestAPIKey {
		t.Errorf("APIKey = %q", events[0].APIKey)
	}
	if events[0].Properties[posthog.PropLib] != "posthog-go" {
		t.Errorf("$lib = %v", events[0].Properties[posthog.PropLib])
	}
}
