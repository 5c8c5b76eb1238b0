package bootstrap

import (
	"os"
	"strings"

	posthog "github.com/jdziat/posthog-go"
)

// Environment variable names read by LoadEnvironment.
const (
	EnvAPIKey = posthog.EnvAPIKey
	EnvMode   = "APP_ENV"
	EnvGoMode = "GO_ENV"

	// ModeDevelopment enables the SDK's debug mode once loaded.
	ModeDevelopment = "development"
)

// Environment is the process configuration the Provider needs.
type Environment struct {
	// APIKey is handed to the SDK as is. It may be empty.
	APIKey string

	// Mode is the runtime mode, e.g. "development" or "production".
	Mode string
}

// LoadEnvironment reads the API key from POSTHOG_API_KEY and the mode from
// APP_ENV, falling back to GO_ENV.
func LoadEnvironment() Environment {
	mode := os.Getenv(EnvMode)
	if mode == "" {
		mode = os.Getenv(EnvGoMode)
	}
	return Environment{
		APIKey: os.Getenv(EnvAPIKey),
		Mode:   mode,
	}
}

// IsDevelopment reports whether Mode is "development" (case-insensitive).
func (e Environment) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(e.Mode), ModeDevelopment)
}
