// Package posthog provides a Go client for the PostHog product analytics API.
//
// Events are queued locally and sent in batches to the /batch/ endpoint. The
// client fetches feature flags from /decide/ while it loads and then invokes
// any registered loaded hooks.
//
// # Quick Start
//
//	client, err := posthog.Init(os.Getenv("POSTHOG_API_KEY"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Shutdown(context.Background())
//
//	client.Capture(ctx, posthog.EventPageview, posthog.Properties{
//	    posthog.PropCurrentURL: "https://example.com/pricing",
//	})
//
// # Configuration
//
//	client, err := posthog.Init(key,
//	    posthog.WithAPIHost("https://eu.posthog.com"),
//	    posthog.WithBatchSize(100),
//	    posthog.WithFlushInterval(5*time.Second),
//	    posthog.WithDebug(true),
//	)
//
// # Loaded hooks
//
// Init returns as soon as the client is constructed. Hooks registered with
// WithLoaded run on a background goroutine after the remote configuration
// request completes (or fails), mirroring the browser SDK's loaded callback:
//
//	posthog.Init(key, posthog.WithLoaded(func(a posthog.Analytics) {
//	    store.Publish(a)
//	}))
//
// The bootstrap package builds on this to publish a single client for a whole
// application and to turn navigation events into $pageview captures.
//
// # Thread Safety
//
// The Client is safe for concurrent use.
//
// # Event Delivery Guarantees
//
// Delivery is best-effort. Failed batches are retried with exponential backoff
// for rate limits, server errors and transport failures, then reported to the
// ErrorHandler. Always call Shutdown to flush pending events before exit.
package posthog
