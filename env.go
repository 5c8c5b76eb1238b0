package posthog

import (
	"fmt"
	"os"
)

// Environment variable names for configuration.
const (
	// EnvAPIKey is the environment variable for the project API key.
	EnvAPIKey = "POSTHOG_API_KEY"
	// EnvHost is the environment variable for the ingestion host.
	EnvHost = "POSTHOG_HOST"
	// EnvDebug is the environment variable to enable debug mode.
	EnvDebug = "POSTHOG_DEBUG"
)

// InitFromEnv creates a new client using environment variables for configuration.
// It reads POSTHOG_API_KEY and optionally POSTHOG_HOST and POSTHOG_DEBUG.
//
// Example:
//
//	client, err := posthog.InitFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Shutdown(context.Background())
func InitFromEnv(opts ...ConfigOption) (*Client, error) {
	apiKey := os.Getenv(EnvAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("posthog: %s environment variable is required", EnvAPIKey)
	}

	// Prepend env var options so explicit options can override them
	envOpts := make([]ConfigOption, 0, 2)

	if host := os.Getenv(EnvHost); host != "" {
		envOpts = append(envOpts, WithAPIHost(host))
	}

	if debug := os.Getenv(EnvDebug); debug == "true" || debug == "1" {
		envOpts = append(envOpts, WithDebug(true))
	}

	return Init(apiKey, append(envOpts, opts...)...)
}
