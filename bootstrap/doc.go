// Package bootstrap initializes the PostHog SDK once per application and
// turns router navigations into $pageview events.
//
// A Provider owns the initialization. It acquires the SDK through a Loader,
// calls Init with the API key from the Environment and the default options
// (api host, automatic page-view capture off, a loaded hook) followed by the
// caller's options, and publishes the loaded client into a Store. Other
// parts of the application read the client from the Store, directly or
// through the request context set up by Provider.Wrap:
//
//	store := bootstrap.NewStore()
//	emitter := navigation.NewEmitter()
//	p := bootstrap.New(store, emitter)
//	p.Mount(ctx)
//	defer p.Unmount()
//
//	r := chi.NewRouter()
//	r.Use(navigation.Middleware(emitter))
//	http.ListenAndServe(":8080", p.Wrap(r))
//
//	// elsewhere
//	if c := bootstrap.ClientFromContext(r.Context()); c != nil {
//	    c.Capture(ctx, "signed_up", nil)
//	}
//
// Only one initialization runs at a time and none starts once a client is
// published. Navigations that arrive before the client is ready are dropped.
// Analytics failures are reported through Provider.State and LastError but
// never block the application.
package bootstrap
