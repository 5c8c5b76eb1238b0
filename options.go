package posthog

import (
	"net/http"
	"time"
)

// ConfigOption is a function that modifies a Config.
type ConfigOption func(*Config)

// WithAPIHost sets the host events are sent to.
func WithAPIHost(host string) ConfigOption {
	return func(c *Config) {
		c.APIHost = host
	}
}

// WithCapturePageview toggles the automatic $pageview captured on load.
func WithCapturePageview(enabled bool) ConfigOption {
	return func(c *Config) {
		c.CapturePageview = enabled
	}
}

// WithInitialURL sets the URL used by the automatic $pageview.
func WithInitialURL(u string) ConfigOption {
	return func(c *Config) {
		c.InitialURL = u
	}
}

// WithDebug enables debug logging.
func WithDebug(debug bool) ConfigOption {
	return func(c *Config) {
		c.Debug = debug
	}
}

// WithDistinctID sets the distinct ID events are attributed to.
func WithDistinctID(id string) ConfigOption {
	return func(c *Config) {
		c.DistinctID = id
	}
}

// WithSuperProperties merges props into the properties sent with every event.
// Calling it more than once accumulates; later keys win.
func WithSuperProperties(props Properties) ConfigOption {
	return func(c *Config) {
		if c.SuperProperties == nil {
			c.SuperProperties = make(Properties, len(props))
		}
		for k, v := range props {
			c.SuperProperties[k] = v
		}
	}
}

// WithDisableDecide skips the /decide call made during Init.
func WithDisableDecide(disabled bool) ConfigOption {
	return func(c *Config) {
		c.DisableDecide = disabled
	}
}

// WithLoaded registers a hook that runs once the client is ready.
// Hooks accumulate rather than replace each other.
func WithLoaded(fn func(Analytics)) ConfigOption {
	return func(c *Config) {
		if fn != nil {
			c.OnLoaded = append(c.OnLoaded, fn)
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ConfigOption {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(maxRetries int) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = maxRetries
	}
}

// WithRetryDelay sets the initial delay between retry attempts.
func WithRetryDelay(delay time.Duration) ConfigOption {
	return func(c *Config) {
		c.RetryDelay = delay
	}
}

// WithBatchSize sets the maximum batch size.
func WithBatchSize(size int) ConfigOption {
	return func(c *Config) {
		c.BatchSize = size
	}
}

// WithFlushInterval sets the flush interval for batched events.
func WithFlushInterval(interval time.Duration) ConfigOption {
	return func(c *Config) {
		c.FlushInterval = interval
	}
}

// WithBatchQueueSize sets the size of the background batch queue.
func WithBatchQueueSize(size int) ConfigOption {
	return func(c *Config) {
		c.BatchQueueSize = size
	}
}

// WithShutdownTimeout sets the graceful shutdown timeout.
func WithShutdownTimeout(timeout time.Duration) ConfigOption {
	return func(c *Config) {
		c.ShutdownTimeout = timeout
	}
}

// WithStructuredLogger sets a structured logger.
//
// Example with slog:
//
//	client, _ := posthog.Init(key,
//	    posthog.WithStructuredLogger(posthog.NewSlogAdapter(slog.Default())),
//	)
func WithStructuredLogger(logger StructuredLogger) ConfigOption {
	return func(c *Config) {
		c.StructuredLogger = logger
	}
}

// WithMetrics sets a metrics collector.
func WithMetrics(metrics Metrics) ConfigOption {
	return func(c *Config) {
		c.Metrics = metrics
	}
}

// WithErrorHandler sets an error callback for async failures.
func WithErrorHandler(handler func(error)) ConfigOption {
	return func(c *Config) {
		c.ErrorHandler = handler
	}
}

// WithOnBatchFlushed sets a callback invoked after each batch send.
func WithOnBatchFlushed(fn func(BatchResult)) ConfigOption {
	return func(c *Config) {
		c.OnBatchFlushed = fn
	}
}
