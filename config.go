package posthog

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Default configuration values.
const (
	// DefaultAPIHost is the PostHog cloud ingestion host.
	DefaultAPIHost = "https://app.posthog.com"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default maximum number of retry attempts.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default initial delay between retry attempts.
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultBatchSize is the default maximum number of events per batch.
	DefaultBatchSize = 50

	// DefaultFlushInterval is the default interval for flushing pending events.
	DefaultFlushInterval = 5 * time.Second

	// DefaultBatchQueueSize is the default size of the background batch queue.
	DefaultBatchQueueSize = 100

	// DefaultShutdownTimeout is the default graceful shutdown timeout.
	// Must be >= DefaultTimeout to allow pending requests to complete.
	DefaultShutdownTimeout = 15 * time.Second

	// DefaultBackgroundSendTimeout is the timeout for background batch sends.
	DefaultBackgroundSendTimeout = 30 * time.Second

	// MaxBatchSize is the maximum allowed batch size.
	MaxBatchSize = 1000

	// MaxMaxRetries is the maximum allowed retry count.
	MaxMaxRetries = 10

	// MinFlushInterval is the minimum allowed flush interval.
	MinFlushInterval = 10 * time.Millisecond
)

// Config holds the configuration for the PostHog client.
type Config struct {
	// APIKey is the project API key (required).
	APIKey string

	// APIHost is the base URL events are sent to.
	// Defaults to DefaultAPIHost.
	APIHost string

	// CapturePageview captures a $pageview for InitialURL as soon as the
	// client has loaded. Defaults to false.
	CapturePageview bool

	// InitialURL is the URL used for the automatic $pageview.
	InitialURL string

	// Debug enables debug logging.
	Debug bool

	// DistinctID identifies the user events are attributed to.
	// A random anonymous ID is generated if empty.
	DistinctID string

	// SuperProperties are merged into the properties of every event.
	SuperProperties Properties

	// DisableDecide skips the remote /decide call made during Init.
	// Feature flags are unavailable when set.
	DisableDecide bool

	// OnLoaded hooks are invoked, in order, once the client is ready.
	// Init runs them on a background goroutine.
	OnLoaded []func(Analytics)

	// HTTPClient is the HTTP client to use for requests.
	// If not set, a client with Timeout is created.
	HTTPClient *http.Client

	// Timeout is the request timeout.
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts for failed requests.
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts.
	RetryDelay time.Duration

	// BatchSize is the maximum number of events to send in a single batch.
	BatchSize int

	// FlushInterval is the interval at which to flush pending events.
	FlushInterval time.Duration

	// BatchQueueSize is the size of the background batch queue.
	BatchQueueSize int

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration

	// StructuredLogger is used for SDK logging.
	// If nil, logging is disabled unless Debug is true.
	StructuredLogger StructuredLogger

	// Metrics is used for SDK telemetry.
	// If nil, no metrics are collected.
	Metrics Metrics

	// ErrorHandler is called when async operations fail.
	ErrorHandler func(error)

	// OnBatchFlushed is called after each batch is sent to the API.
	OnBatchFlushed func(result BatchResult)
}

// BatchResult contains information about a flushed batch.
type BatchResult struct {
	EventCount int
	Success    bool
	Error      error
	Duration   time.Duration
}

// String returns a string representation of the config with a masked API key.
func (c *Config) String() string {
	return fmt.Sprintf("Config{APIKey: %q, APIHost: %q, DistinctID: %q, BatchSize: %d, FlushInterval: %v, Debug: %t}",
		MaskCredential(c.APIKey),
		c.APIHost,
		c.DistinctID,
		c.BatchSize,
		c.FlushInterval,
		c.Debug,
	)
}

// NewConfig builds a Config from an API key and options without applying
// defaults. Later options override earlier ones.
func NewConfig(apiKey string, opts ...ConfigOption) *Config {
	cfg := &Config{APIKey: apiKey}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// applyDefaults sets default values for unset configuration options.
func (c *Config) applyDefaults() {
	if c.APIHost == "" {
		c.APIHost = DefaultAPIHost
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.FlushInterval == 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.BatchQueueSize == 0 {
		c.BatchQueueSize = DefaultBatchQueueSize
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.DistinctID == "" {
		c.DistinctID = newAnonymousID()
	}

	if c.Debug && c.StructuredLogger == nil {
		c.StructuredLogger = WrapStdLogger(log.New(os.Stderr, "posthog: ", log.LstdFlags))
	}

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
}

// validate checks that the configuration is valid.
func (c *Config) validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if c.APIHost == "" {
		return ErrMissingAPIHost
	}

	u, err := url.Parse(c.APIHost)
	if err != nil {
		return fmt.Errorf("posthog: invalid api host: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("posthog: api host must use http or https, got %q", c.APIHost)
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("posthog: batch size must be at least 1, got %d", c.BatchSize)
	}
	if c.BatchSize > MaxBatchSize {
		return fmt.Errorf("posthog: batch size cannot exceed %d, got %d", MaxBatchSize, c.BatchSize)
	}
	if c.MaxRetries < 0 || c.MaxRetries > MaxMaxRetries {
		return fmt.Errorf("posthog: max retries must be between 0 and %d, got %d", MaxMaxRetries, c.MaxRetries)
	}
	if c.FlushInterval < MinFlushInterval {
		return fmt.Errorf("posthog: flush interval must be at least %v, got %v", MinFlushInterval, c.FlushInterval)
	}
	if c.BatchQueueSize < 1 {
		return fmt.Errorf("posthog: batch queue size must be at least 1, got %d", c.BatchQueueSize)
	}
	if c.ShutdownTimeout < c.Timeout {
		return fmt.Errorf("posthog: shutdown timeout (%v) must be >= request timeout (%v)", c.ShutdownTimeout, c.Timeout)
	}

	return nil
}
