// Package config loads configuration for pageview-proxy.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	posthog "github.com/jdziat/posthog-go"
	"github.com/jdziat/posthog-go/bootstrap"
)

// Config represents the complete proxy configuration.
type Config struct {
	Mode    string        `yaml:"mode"`
	PostHog PostHogConfig `yaml:"posthog"`
	Proxy   ProxyConfig   `yaml:"proxy"`
	Log     LogConfig     `yaml:"log"`
}

// PostHogConfig holds SDK settings.
type PostHogConfig struct {
	APIKey        string        `yaml:"api_key"`
	Host          string        `yaml:"host"`
	Debug         bool          `yaml:"debug"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	DisableDecide bool          `yaml:"disable_decide"`
}

// ProxyConfig holds the HTTP server settings.
type ProxyConfig struct {
	Listen          string        `yaml:"listen"`
	Upstream        string        `yaml:"upstream"`
	MetricsPath     string        `yaml:"metrics_path"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig configures the logrus logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Environment variables applied over the file.
const (
	EnvListen   = "PAGEVIEW_PROXY_LISTEN"
	EnvUpstream = "PAGEVIEW_PROXY_UPSTREAM"
	EnvLogLevel = "PAGEVIEW_PROXY_LOG_LEVEL"
	EnvMode     = "APP_ENV"
)

// FileNames are the configuration file names searched for, in order.
var FileNames = []string{
	".posthog-proxy.yaml",
	".posthog-proxy.yml",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Mode: "production",
		PostHog: PostHogConfig{
			Host:          posthog.DefaultAPIHost,
			BatchSize:     posthog.DefaultBatchSize,
			FlushInterval: posthog.DefaultFlushInterval,
		},
		Proxy: ProxyConfig{
			Listen:          ":8080",
			MetricsPath:     "/metrics",
			ShutdownTimeout: posthog.DefaultShutdownTimeout,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load finds the configuration file by walking up from the working
// directory, then applies environment overrides and ${VAR} expansion.
// A missing file is not an error.
func Load() (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return LoadFrom(FindFile(dir))
}

// LoadFrom loads path over the defaults. An empty path skips the file.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	expandEnvVars(cfg)

	return cfg, nil
}

// FindFile returns the first configuration file found in dir or one of its
// parents, or "" if there is none.
func FindFile(dir string) string {
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(posthog.EnvAPIKey); v != "" {
		cfg.PostHog.APIKey = v
	}
	if v := os.Getenv(posthog.EnvHost); v != "" {
		cfg.PostHog.Host = v
	}
	if v := os.Getenv(posthog.EnvDebug); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.PostHog.Debug = b
		}
	}
	if v := os.Getenv(EnvListen); v != "" {
		cfg.Proxy.Listen = v
	}
	if v := os.Getenv(EnvUpstream); v != "" {
		cfg.Proxy.Upstream = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvMode); v != "" {
		cfg.Mode = v
	}
}

func expandEnvVars(cfg *Config) {
	cfg.PostHog.APIKey = expandEnvVar(cfg.PostHog.APIKey)
	cfg.PostHog.Host = expandEnvVar(cfg.PostHog.Host)
	cfg.Proxy.Upstream = expandEnvVar(cfg.Proxy.Upstream)
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVar expands ${VAR} references. A bare $ is kept as written.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

// Validate checks the settings serve needs. The API key is not checked;
// an empty key is left to the SDK.
func (c *Config) Validate() error {
	var errs []error
	if c.Proxy.Upstream == "" {
		errs = append(errs, errors.New("proxy.upstream is required"))
	} else if u, err := url.Parse(c.Proxy.Upstream); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("proxy.upstream %q is not an absolute URL", c.Proxy.Upstream))
	}
	if c.Proxy.Listen == "" {
		errs = append(errs, errors.New("proxy.listen is required"))
	}
	if !strings.HasPrefix(c.Proxy.MetricsPath, "/") {
		errs = append(errs, fmt.Errorf("proxy.metrics_path %q must start with /", c.Proxy.MetricsPath))
	}
	return errors.Join(errs...)
}

// Environment returns the bootstrap environment for the loaded key and mode.
func (c *Config) Environment() bootstrap.Environment {
	return bootstrap.Environment{APIKey: c.PostHog.APIKey, Mode: c.Mode}
}

// SDKOptions converts the posthog section into SDK options.
// Zero values are skipped so the SDK defaults apply.
func (c *Config) SDKOptions() []posthog.ConfigOption {
	var opts []posthog.ConfigOption
	if c.PostHog.Host != "" {
		opts = append(opts, posthog.WithAPIHost(c.PostHog.Host))
	}
	if c.PostHog.Debug {
		opts = append(opts, posthog.WithDebug(true))
	}
	if c.PostHog.BatchSize > 0 {
		opts = append(opts, posthog.WithBatchSize(c.PostHog.BatchSize))
	}
	if c.PostHog.FlushInterval > 0 {
		opts = append(opts, posthog.WithFlushInterval(c.PostHog.FlushInterval))
	}
	if c.PostHog.DisableDecide {
		opts = append(opts, posthog.WithDisableDecide(true))
	}
	return opts
}
