package posthog

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// defaultStderrLogger is used as a fallback when no logger is configured.
// This ensures async errors are never silently dropped.
var defaultStderrLogger = log.New(os.Stderr, "posthog: ", log.LstdFlags)

// loggerRef lets the active logger be swapped atomically by Debug.
type loggerRef struct {
	logger StructuredLogger
}

// Client is the PostHog client. It is safe for concurrent use.
type Client struct {
	config *Config
	http   *httpClient

	logger atomic.Pointer[loggerRef]
	debug  atomic.Bool
	state  atomic.Int32

	// Batching and identity, guarded by mu
	mu            sync.Mutex
	pendingEvents []captureEvent
	closed        bool
	distinctID    string
	superProps    Properties

	flagsMu sync.RWMutex
	flags   map[string]any

	// Background goroutine management
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	batchQueue chan batchRequest
	stopFlush  chan struct{}

	// Graceful shutdown signaling
	drainSignal   chan struct{}
	drainComplete chan struct{}

	loaded    chan struct{}
	startedAt time.Time
}

// Init creates a client for the project identified by apiKey and starts its
// background workers. The OnLoaded hooks run asynchronously once the remote
// configuration has been fetched, so Init itself never blocks on the network.
//
// Example:
//
//	client, err := posthog.Init(os.Getenv("POSTHOG_API_KEY"),
//	    posthog.WithAPIHost("https://eu.posthog.com"),
//	    posthog.WithLoaded(func(a posthog.Analytics) { log.Println("ready") }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Shutdown(context.Background())
func Init(apiKey string, opts ...ConfigOption) (*Client, error) {
	return InitWithConfig(NewConfig(apiKey, opts...))
}

// InitWithConfig creates a client from a Config struct.
// The Config is copied; later changes to it have no effect.
func InitWithConfig(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	cfgCopy := *cfg
	cfgCopy.OnLoaded = append([]func(Analytics){}, cfg.OnLoaded...)
	cfgCopy.SuperProperties = Properties{}.merged(cfg.SuperProperties)
	cfgCopy.applyDefaults()

	if err := cfgCopy.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Client{
		config:        &cfgCopy,
		http:          newHTTPClient(&cfgCopy),
		pendingEvents: make([]captureEvent, 0, cfgCopy.BatchSize),
		distinctID:    cfgCopy.DistinctID,
		superProps:    cfgCopy.SuperProperties,
		flags:         make(map[string]any),
		ctx:           ctx,
		cancel:        cancel,
		batchQueue:    make(chan batchRequest, cfgCopy.BatchQueueSize),
		stopFlush:     make(chan struct{}),
		drainSignal:   make(chan struct{}),
		drainComplete: make(chan struct{}),
		loaded:        make(chan struct{}),
		startedAt:     time.Now(),
	}
	c.logger.Store(&loggerRef{logger: cfgCopy.StructuredLogger})
	c.debug.Store(cfgCopy.Debug)
	c.state.Store(int32(ClientStateActive))

	c.wg.Add(1)
	go c.batchProcessor()

	c.wg.Add(1)
	go c.flushLoop()

	c.wg.Add(1)
	go c.load()

	c.logDebug("client initialized", "config", cfgCopy.String())

	return c, nil
}

// load fetches remote configuration and runs the loaded hooks.
func (c *Client) load() {
	defer c.wg.Done()
	defer close(c.loaded)

	if !c.config.DisableDecide {
		ctx, cancel := context.WithTimeout(c.ctx, c.config.Timeout)
		if err := c.ReloadFeatureFlags(ctx); err != nil {
			c.logWarn("decide request failed, continuing without feature flags", "error", err)
		}
		cancel()
	}

	if c.config.CapturePageview && c.config.InitialURL != "" {
		if err := c.Capture(c.ctx, EventPageview, Properties{PropCurrentURL: c.config.InitialURL}); err != nil && err != ErrClientClosed {
			c.handleError(err)
		}
	}

	if c.ctx.Err() != nil {
		return
	}
	for i, hook := range c.config.OnLoaded {
		c.callLoadedHook(i, hook)
	}
}

// callLoadedHook runs a single loaded hook. A panic is reported through
// handleError and the remaining hooks still run.
func (c *Client) callLoadedHook(index int, hook func(Analytics)) {
	defer func() {
		if r := recover(); r != nil {
			if c.config.Metrics != nil {
				c.config.Metrics.IncrementCounter("posthog.hooks.panics", 1)
			}
			c.handleError(fmt.Errorf("posthog: loaded hook %d panicked: %v", index, r))
		}
	}()
	hook(c)
}

// Loaded returns a channel that is closed once the loaded hooks have run
// (or been skipped because the client shut down first).
func (c *Client) Loaded() <-chan struct{} {
	return c.loaded
}

// Capture records an event for the current distinct ID.
// Events are batched and sent in the background.
func (c *Client) Capture(ctx context.Context, event string, props Properties) error {
	if strings.TrimSpace(event) == "" {
		return &ValidationError{Field: "event", Message: "event name is required", Err: ErrEmptyEvent}
	}
	return c.queueEvent(ctx, event, props)
}

// Identify associates subsequent events with distinctID and records an
// $identify event linking it to the previous anonymous ID.
func (c *Client) Identify(ctx context.Context, distinctID string, set Properties) error {
	if strings.TrimSpace(distinctID) == "" {
		return &ValidationError{Field: "distinct_id", Message: "distinct id is required"}
	}

	c.mu.Lock()
	previous := c.distinctID
	c.distinctID = distinctID
	c.mu.Unlock()

	props := Properties{PropAnonDistinctID: previous}
	if len(set) > 0 {
		props[PropSet] = set
	}
	return c.queueEvent(ctx, EventIdentify, props)
}

// Register adds super properties sent with every subsequent event.
func (c *Client) Register(props Properties) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.superProps = props.merged(c.superProps)
}

// DistinctID returns the distinct ID events are currently attributed to.
func (c *Client) DistinctID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.distinctID
}

// Debug switches on debug logging for the rest of the client's life.
// A stderr logger is installed if none was configured.
func (c *Client) Debug() {
	if ref := c.logger.Load(); ref == nil || ref.logger == nil {
		c.logger.Store(&loggerRef{logger: WrapStdLogger(defaultStderrLogger)})
	}
	if c.debug.CompareAndSwap(false, true) {
		c.logInfo("debug mode enabled", "distinct_id", c.DistinctID())
	}
}

// IsDebug reports whether debug logging is on.
func (c *Client) IsDebug() bool {
	return c.debug.Load()
}

// handleError reports an async error to the configured handler and logger.
func (c *Client) handleError(err error) {
	handled := false

	if c.config.ErrorHandler != nil {
		c.config.ErrorHandler(err)
		handled = true
	}

	if l := c.activeLogger(); l != nil {
		l.Error("async error", "error", err)
		handled = true
	}

	if c.config.Metrics != nil {
		c.config.Metrics.IncrementCounter("posthog.errors", 1)
	}

	// Never silently drop errors - log to stderr as fallback
	if !handled {
		defaultStderrLogger.Printf("unhandled async error: %v", err)
	}
}

func (c *Client) activeLogger() StructuredLogger {
	if ref := c.logger.Load(); ref != nil {
		return ref.logger
	}
	return nil
}

// logDebug logs a debug message when debug mode is on.
func (c *Client) logDebug(msg string, args ...any) {
	if !c.debug.Load() {
		return
	}
	if l := c.activeLogger(); l != nil {
		l.Debug(msg, args...)
	}
}

// logf is the printf-style form of logDebug.
func (c *Client) logf(format string, v ...any) {
	if c.debug.Load() {
		c.logDebug(fmt.Sprintf(format, v...))
	}
}

func (c *Client) logInfo(msg string, args ...any) {
	if l := c.activeLogger(); l != nil {
		l.Info(msg, args...)
	}
}

func (c *Client) logWarn(msg string, args ...any) {
	if l := c.activeLogger(); l != nil {
		l.Warn(msg, args...)
	}
}

func (c *Client) logError(msg string, args ...any) {
	if l := c.activeLogger(); l != nil {
		l.Error(msg, args...)
	}
}
