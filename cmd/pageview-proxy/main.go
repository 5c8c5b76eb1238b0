// Package main provides pageview-proxy, a reverse proxy that reports every
// page served through it to PostHog as a $pageview.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	posthog "github.com/jdziat/posthog-go"
	"github.com/jdziat/posthog-go/internal/config"
	"github.com/jdziat/posthog-go/internal/logging"
)

const version = "0.4.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	switch args[0] {
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "pageview-proxy version %s (posthog-go %s)\n", version, posthog.Version)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	case "serve", "capture":
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		printUsage(stderr)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger := logging.New(stderr, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "serve":
		err = serve(ctx, cfg, logger)
	case "capture":
		if len(args) < 2 {
			fmt.Fprintln(stderr, "Usage: pageview-proxy capture <event> [url]")
			return 1
		}
		pageURL := ""
		if len(args) > 2 {
			pageURL = args[2]
		}
		err = capture(ctx, cfg, logging.NewAdapter(logger), args[1], pageURL)
	}

	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `pageview-proxy - Reverse proxy that records page views in PostHog

Usage:
  pageview-proxy <command> [arguments]

Commands:
  serve                  Proxy requests to the upstream and capture page views
  capture <event> [url]  Capture a single event and flush it
  version                Print version information
  help                   Show this help message

Environment Variables:
  POSTHOG_API_KEY           Project API key
  POSTHOG_HOST              PostHog host (default https://app.posthog.com)
  POSTHOG_DEBUG             Set to "true" for SDK debug logging
  PAGEVIEW_PROXY_LISTEN     Listen address (default :8080)
  PAGEVIEW_PROXY_UPSTREAM   Upstream URL (required for serve)
  PAGEVIEW_PROXY_LOG_LEVEL  Log level (default info)
  APP_ENV                   Runtime mode; "development" enables SDK debug mode

Configuration:
  Create .posthog-proxy.yaml in the working directory or any parent.`)
}
