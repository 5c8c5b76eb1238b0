package bootstrap

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	posthog "github.com/jdziat/posthog-go"
	"github.com/jdziat/posthog-go/navigation"
)

// SDK is the part of the analytics library the Provider drives.
// posthog.SDK satisfies it.
type SDK interface {
	Init(apiKey string, opts ...posthog.ConfigOption) error
}

var _ SDK = posthog.SDK{}

// Loader acquires the SDK on demand.
type Loader func(ctx context.Context) (SDK, error)

// DefaultLoader returns the posthog SDK.
func DefaultLoader(context.Context) (SDK, error) {
	return posthog.SDK{}, nil
}

// State is the initialization state of a Provider.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Option configures a Provider.
type Option func(*Provider)

// WithLoader sets how the SDK is acquired. The default is DefaultLoader.
func WithLoader(l Loader) Option {
	return func(p *Provider) {
		if l != nil {
			p.loader = l
		}
	}
}

// WithEnvironment replaces the environment read by LoadEnvironment.
func WithEnvironment(env Environment) Option {
	return func(p *Provider) {
		p.env = env
	}
}

// WithSDKOptions adds SDK options applied after the Provider's defaults.
// Options accumulate across calls.
func WithSDKOptions(opts ...posthog.ConfigOption) Option {
	return func(p *Provider) {
		p.sdkOpts = append(p.sdkOpts, opts...)
	}
}

// WithLogger sets the logger for initialization and capture failures.
func WithLogger(l posthog.StructuredLogger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m posthog.Metrics) Option {
	return func(p *Provider) {
		p.metrics = m
	}
}

// Provider initializes the analytics SDK once, publishes its client to a
// Store and turns navigation events into $pageview captures.
//
//	store := bootstrap.NewStore()
//	p := bootstrap.New(store, emitter,
//	    bootstrap.WithSDKOptions(posthog.WithAPIHost("https://eu.posthog.com")),
//	)
//	p.Mount(ctx)
//	defer p.Unmount()
//	http.ListenAndServe(":8080", p.Wrap(mux))
type Provider struct {
	store   *Store
	router  navigation.Source
	loader  Loader
	env     Environment
	sdkOpts []posthog.ConfigOption
	logger  posthog.StructuredLogger
	metrics posthog.Metrics

	inProgress atomic.Bool
	state      atomic.Int32

	// pending is closed by the loaded callback of the SDK Init that is
	// still outstanding; nil when no Init is outstanding.
	pendingMu sync.Mutex
	pending   chan struct{}

	errMu   sync.Mutex
	lastErr error

	mu          sync.Mutex
	unsubscribe func()
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// New creates a Provider publishing to store and listening to router.
// A nil store gets a fresh Store; a nil router disables page-view tracking.
func New(store *Store, router navigation.Source, opts ...Option) *Provider {
	if store == nil {
		store = NewStore()
	}
	p := &Provider{
		store:  store,
		router: router,
		loader: DefaultLoader,
		env:    LoadEnvironment(),
		logger: posthog.NopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store returns the Store the Provider publishes to.
func (p *Provider) Store() *Store {
	return p.store
}

// State returns the current initialization state.
func (p *Provider) State() State {
	return State(p.state.Load())
}

// LastError returns the error of the most recent failed attempt.
func (p *Provider) LastError() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.lastErr
}

// Initialize acquires and initializes the SDK, then blocks until the SDK's
// loaded callback has published a client, an error occurs, or ctx is done.
//
// It returns nil without doing anything when a client is already published
// or another attempt is in flight. A failed attempt is not retried; a later
// call may try again. When an earlier attempt gave up waiting but its SDK
// Init has not reported back, a later call waits on that Init instead of
// starting another one.
func (p *Provider) Initialize(ctx context.Context) error {
	if p.store.Client() != nil {
		return nil
	}
	if !p.inProgress.CompareAndSwap(false, true) {
		return nil
	}
	defer p.inProgress.Store(false)

	if p.store.Client() != nil {
		return nil
	}

	p.state.Store(int32(StateInitializing))

	if loaded := p.pendingInit(); loaded != nil {
		if err := p.await(ctx, loaded); err != nil {
			p.fail(err)
			return err
		}
		return nil
	}

	p.incr("bootstrap.init.attempts")
	if err := p.initialize(ctx); err != nil {
		p.fail(err)
		return err
	}
	return nil
}

func (p *Provider) initialize(ctx context.Context) error {
	sdk, err := p.load(ctx)
	if err != nil {
		return &InitError{Phase: PhaseLoad, Err: err}
	}

	loaded := make(chan struct{})
	var once sync.Once
	settle := func() {
		once.Do(func() {
			p.clearPending(loaded)
			close(loaded)
		})
	}
	onLoaded := func(client posthog.Analytics) {
		defer settle()
		p.publish(client)
	}

	p.setPending(loaded)
	if err := callInit(sdk, p.env.APIKey, p.options(onLoaded)); err != nil {
		settle()
		return &InitError{Phase: PhaseInit, Err: err}
	}

	return p.await(ctx, loaded)
}

// await blocks until loaded is closed or ctx is done.
func (p *Provider) await(ctx context.Context, loaded <-chan struct{}) error {
	select {
	case <-loaded:
	case <-ctx.Done():
		select {
		case <-loaded:
		default:
			return &InitError{Phase: PhaseWait, Err: ctx.Err()}
		}
	}

	if p.store.Client() == nil {
		return &InitError{Phase: PhaseInit, Err: ErrNoClient}
	}
	return nil
}

func (p *Provider) pendingInit() chan struct{} {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	return p.pending
}

func (p *Provider) setPending(loaded chan struct{}) {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	p.pending = loaded
}

func (p *Provider) clearPending(loaded chan struct{}) {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	if p.pending == loaded {
		p.pending = nil
	}
}

func (p *Provider) load(ctx context.Context) (sdk SDK, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	sdk, err = p.loader(ctx)
	if err == nil && sdk == nil {
		err = ErrNilSDK
	}
	return sdk, err
}

func callInit(sdk SDK, apiKey string, opts []posthog.ConfigOption) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return sdk.Init(apiKey, opts...)
}

// options returns the defaults followed by the caller's options, so the
// caller wins on any setting both touch. Loaded hooks are additive.
func (p *Provider) options(onLoaded func(posthog.Analytics)) []posthog.ConfigOption {
	opts := []posthog.ConfigOption{
		posthog.WithAPIHost(posthog.DefaultAPIHost),
		posthog.WithCapturePageview(false),
		posthog.WithLoaded(onLoaded),
	}
	return append(opts, p.sdkOpts...)
}

func (p *Provider) publish(client posthog.Analytics) {
	if !p.store.Publish(client) {
		return
	}
	if p.env.IsDevelopment() {
		client.Debug()
	}
	p.state.Store(int32(StateReady))
	p.errMu.Lock()
	p.lastErr = nil
	p.errMu.Unlock()
	p.logger.Debug("analytics client ready")
}

func (p *Provider) fail(err error) {
	if p.store.Client() != nil {
		return
	}
	p.state.Store(int32(StateFailed))
	p.errMu.Lock()
	p.lastErr = err
	p.errMu.Unlock()
	p.incr("bootstrap.init.failures")
	p.logger.Warn("analytics initialization failed", "error", err)
}

// Mount subscribes to navigation events and starts initialization in the
// background. Calling Mount on a mounted Provider does nothing.
func (p *Provider) Mount(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	if p.router != nil {
		p.unsubscribe = p.router.Subscribe(p.trackPageview)
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_ = p.Initialize(ctx)
	}()
}

// Unmount removes the navigation subscription and stops waiting on a
// pending initialization. The published client is left in the Store.
func (p *Provider) Unmount() {
	p.mu.Lock()
	unsubscribe, cancel := p.unsubscribe, p.cancel
	p.unsubscribe, p.cancel = nil, nil
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

// Wrap returns next unchanged in behavior, with the Store added to every
// request context.
func (p *Provider) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), p.store)))
	})
}

func (p *Provider) trackPageview(ev navigation.Event) {
	client := p.store.Client()
	if client == nil {
		p.incr("bootstrap.pageviews.dropped")
		return
	}

	props := posthog.Properties{posthog.PropCurrentURL: ev.URL}
	if ev.Path != "" {
		props[posthog.PropPathname] = ev.Path
	}
	if ev.Referrer != "" {
		props[posthog.PropReferrer] = ev.Referrer
	}

	if err := client.Capture(context.Background(), posthog.EventPageview, props); err != nil {
		p.logger.Warn("pageview capture failed", "url", ev.URL, "error", err)
		return
	}
	p.incr("bootstrap.pageviews.captured")
}

func (p *Provider) incr(name string) {
	if p.metrics != nil {
		p.metrics.IncrementCounter(name, 1)
	}
}
