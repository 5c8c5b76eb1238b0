package main

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	posthog "github.com/jdziat/posthog-go"
	"github.com/jdziat/posthog-go/internal/config"
)

// capture sends one event and waits for it to be flushed.
func capture(ctx context.Context, cfg *config.Config, logger posthog.StructuredLogger, event, pageURL string) error {
	var (
		mu      sync.Mutex
		sendErr error
	)
	opts := append(cfg.SDKOptions(),
		posthog.WithStructuredLogger(logger),
		posthog.WithDisableDecide(true),
		posthog.WithOnBatchFlushed(func(r posthog.BatchResult) {
			mu.Lock()
			defer mu.Unlock()
			if !r.Success && sendErr == nil {
				sendErr = r.Error
			}
		}),
	)
	client, err := posthog.Init(cfg.PostHog.APIKey, opts...)
	if err != nil {
		return err
	}

	props := posthog.Properties{}
	if pageURL != "" {
		u, err := url.Parse(pageURL)
		if err != nil {
			_ = client.Close(ctx)
			return fmt.Errorf("invalid url %q: %w", pageURL, err)
		}
		props.Set(posthog.PropCurrentURL, pageURL).Set(posthog.PropPathname, u.Path)
	}

	if err := client.Capture(ctx, event, props); err != nil {
		_ = client.Close(ctx)
		return err
	}

	if err := client.Shutdown(ctx); err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	if sendErr != nil {
		return fmt.Errorf("send %s: %w", event, sendErr)
	}
	logger.Info("event captured", "event", event, "distinct_id", client.DistinctID())
	return nil
}
