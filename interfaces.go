package posthog

import "context"

// Analytics is the event-recording surface of a loaded client.
// It is what OnLoaded hooks receive and what application code should depend on.
type Analytics interface {
	// Capture records an event with the given properties.
	Capture(ctx context.Context, event string, props Properties) error

	// Debug switches on verbose SDK logging.
	Debug()
}

// Ensure Client implements Analytics at compile time.
var _ Analytics = (*Client)(nil)

// Flusher defines the interface for types that can flush pending data.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Shutdowner is implemented by clients that own background goroutines.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

var (
	_ Flusher    = (*Client)(nil)
	_ Shutdowner = (*Client)(nil)
)

// SDK exposes Init as a value so it can be handed to code that acquires the
// analytics library on demand. The client is delivered to the OnLoaded hooks.
type SDK struct{}

// Init calls the package-level Init and discards the returned client;
// callers receive it through WithLoaded.
func (SDK) Init(apiKey string, opts ...ConfigOption) error {
	_, err := Init(apiKey, opts...)
	return err
}
