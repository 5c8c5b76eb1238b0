// Package posthogtest provides testing utilities for code built on posthog-go.
//
// # Mock Server
//
// MockServer speaks the PostHog ingestion API (/batch/, /capture/, /decide/)
// and records what it receives:
//
//	server := posthogtest.NewMockServer()
//	defer server.Close()
//
//	client, _ := posthog.Init("phc_key", posthog.WithAPIHost(server.URL))
//	// ... capture events, then Flush ...
//
//	pageviews := server.EventsNamed(posthog.EventPageview)
//
// # Fake SDK
//
// FakeSDK replaces the analytics library for code that acquires it on demand.
// It records every Init call with its resolved Config and hands a FakeClient
// to the loaded hooks:
//
//	sdk := posthogtest.NewFakeSDK()
//	sdk.Hold() // keep initialization in flight
//	// ... exercise the code under test ...
//	sdk.Release()
//	sdk.Wait()
//
// # Mock Metrics and Logger
//
// MockMetrics and MockLogger implement posthog.Metrics and
// posthog.StructuredLogger and keep everything they receive.
package posthogtest
