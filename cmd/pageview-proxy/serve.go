package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	posthog "github.com/jdziat/posthog-go"
	"github.com/jdziat/posthog-go/bootstrap"
	"github.com/jdziat/posthog-go/internal/config"
	"github.com/jdziat/posthog-go/internal/logging"
	"github.com/jdziat/posthog-go/navigation"
	"github.com/jdziat/posthog-go/prommetrics"
)

// proxy wires the reverse proxy, navigation emitter and analytics provider.
type proxy struct {
	cfg       *config.Config
	upstream  *url.URL
	logger    *logrus.Logger
	registry  *prometheus.Registry
	collector *prommetrics.Collector
	emitter   *navigation.Emitter
	provider  *bootstrap.Provider
}

func newProxy(cfg *config.Config, logger *logrus.Logger, opts ...bootstrap.Option) (*proxy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	upstream, err := url.Parse(cfg.Proxy.Upstream)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	collector := prommetrics.NewCollector(registry, "pageview_proxy")
	adapter := logging.NewAdapter(logger)
	emitter := navigation.NewEmitter()

	sdkOpts := append(cfg.SDKOptions(),
		posthog.WithStructuredLogger(adapter.With("component", "sdk")),
		posthog.WithMetrics(collector),
	)
	base := []bootstrap.Option{
		bootstrap.WithEnvironment(cfg.Environment()),
		bootstrap.WithSDKOptions(sdkOpts...),
		bootstrap.WithLogger(adapter.With("component", "bootstrap")),
		bootstrap.WithMetrics(collector),
	}

	return &proxy{
		cfg:       cfg,
		upstream:  upstream,
		logger:    logger,
		registry:  registry,
		collector: collector,
		emitter:   emitter,
		provider:  bootstrap.New(bootstrap.NewStore(), emitter, append(base, opts...)...),
	}, nil
}

func (p *proxy) handler() http.Handler {
	rp := httputil.NewSingleHostReverseProxy(p.upstream)
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		p.logger.WithFields(logrus.Fields{
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		}).WithError(err).Warn("upstream request failed")
		w.WriteHeader(http.StatusBadGateway)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(p.collector.Middleware)

	r.Method(http.MethodGet, p.cfg.Proxy.MetricsPath, prommetrics.Handler(p.registry))
	r.Get("/healthz", p.handleHealth)
	r.Get("/healthz/sdk", p.clientHandler((*posthog.Client).HealthHandler))
	r.Get("/debug/posthog", p.clientHandler((*posthog.Client).StatsHandler))

	r.Group(func(r chi.Router) {
		r.Use(navigation.Middleware(p.emitter))
		r.Handle("/*", rp)
	})

	return p.provider.Wrap(r)
}

func (p *proxy) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{
		"status":    "ok",
		"analytics": p.provider.State().String(),
	}
	if err := p.provider.LastError(); err != nil {
		body["analytics_error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// clientHandler serves h from the published SDK client, or 503 until one
// is loaded.
func (p *proxy) clientHandler(h func(*posthog.Client) http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := p.provider.Store().Client().(*posthog.Client)
		if !ok {
			http.Error(w, "analytics "+p.provider.State().String(), http.StatusServiceUnavailable)
			return
		}
		h(client).ServeHTTP(w, r)
	}
}

// close unmounts the provider and flushes the published client.
func (p *proxy) close() {
	p.provider.Unmount()

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Proxy.ShutdownTimeout)
	defer cancel()
	if err := p.provider.Store().Close(ctx); err != nil {
		p.logger.WithError(err).Warn("analytics shutdown incomplete")
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	p, err := newProxy(cfg, logger)
	if err != nil {
		return err
	}
	defer p.close()

	srv := &http.Server{
		Addr:              cfg.Proxy.Listen,
		Handler:           p.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	p.provider.Mount(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithFields(logrus.Fields{
			"addr":     cfg.Proxy.Listen,
			"upstream": cfg.Proxy.Upstream,
			"api_key":  posthog.MaskCredential(cfg.PostHog.APIKey),
		}).Info("pageview-proxy listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Proxy.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
