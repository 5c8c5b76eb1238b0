package posthog

import (
	"strings"
	"testing"
	"time"
)

func TestNewConfig_NoDefaults(t *testing.T) {
	cfg := NewConfig("phc_key", nil, WithBatchSize(10), WithBatchSize(20))

	if cfg.APIKey != "phc_key" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.BatchSize != 20 {
		t.Errorf("later option should win, BatchSize = %d", cfg.BatchSize)
	}
	if cfg.APIHost != "" || cfg.Timeout != 0 {
		t.Errorf("NewConfig should not apply defaults: %+v", cfg)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{APIKey: "phc_key"}
	cfg.applyDefaults()

	if cfg.APIHost != DefaultAPIHost {
		t.Errorf("APIHost = %q", cfg.APIHost)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.MaxRetries != DefaultMaxRetries {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}
	if cfg.RetryDelay != DefaultRetryDelay {
		t.Errorf("RetryDelay = %v", cfg.RetryDelay)
	}
	if cfg.BatchSize != DefaultBatchSize {
		t.Errorf("BatchSize = %d", cfg.BatchSize)
	}
	if cfg.FlushInterval != DefaultFlushInterval {
		t.Errorf("FlushInterval = %v", cfg.FlushInterval)
	}
	if cfg.BatchQueueSize != DefaultBatchQueueSize {
		t.Errorf("BatchQueueSize = %d", cfg.BatchQueueSize)
	}
	if cfg.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
	if cfg.DistinctID == "" {
		t.Error("expected a generated DistinctID")
	}
	if cfg.HTTPClient == nil || cfg.HTTPClient.Timeout != DefaultTimeout {
		t.Error("expected an HTTP client with the default timeout")
	}
	if cfg.StructuredLogger != nil {
		t.Error("no logger should be installed without debug")
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		APIKey:        "phc_key",
		APIHost:       "https://eu.posthog.com",
		BatchSize:     7,
		FlushInterval: time.Minute,
		DistinctID:    "user-1",
		Debug:         true,
	}
	cfg.applyDefaults()

	if cfg.APIHost != "https://eu.posthog.com" || cfg.BatchSize != 7 || cfg.FlushInterval != time.Minute {
		t.Errorf("explicit values overwritten: %+v", cfg)
	}
	if cfg.DistinctID != "user-1" {
		t.Errorf("DistinctID = %q", cfg.DistinctID)
	}
	if cfg.StructuredLogger == nil {
		t.Error("debug without a logger should install the stderr logger")
	}
}

func TestConfigString_MasksKey(t *testing.T) {
	cfg := NewConfig("phc_1234567890abcdef", WithAPIHost("https://app.posthog.com"))
	s := cfg.String()

	if strings.Contains(s, "1234567890") {
		t.Errorf("String() leaks the API key: %s", s)
	}
	if !strings.Contains(s, "phc_************cdef") {
		t.Errorf("String() = %s", s)
	}
}

func TestWithSuperProperties_Accumulates(t *testing.T) {
	cfg := NewConfig("phc_key",
		WithSuperProperties(Properties{"a": 1, "b": 1}),
		WithSuperProperties(Properties{"b": 2}),
	)

	if cfg.SuperProperties["a"] != 1 || cfg.SuperProperties["b"] != 2 {
		t.Errorf("SuperProperties = %v", cfg.SuperProperties)
	}
}

func TestWithLoaded_Accumulates(t *testing.T) {
	cfg := NewConfig("phc_key",
		WithLoaded(func(Analytics) {}),
		WithLoaded(nil),
		WithLoaded(func(Analytics) {}),
	)

	if len(cfg.OnLoaded) != 2 {
		t.Errorf("expected 2 hooks, got %d", len(cfg.OnLoaded))
	}
}

func TestConfigOptions(t *testing.T) {
	logger := NopLogger{}
	cfg := NewConfig("phc_key",
		WithAPIHost("https://eu.posthog.com"),
		WithCapturePageview(true),
		WithInitialURL("https://example.com"),
		WithDebug(true),
		WithDistinctID("user-1"),
		WithDisableDecide(true),
		WithTimeout(3*time.Second),
		WithMaxRetries(5),
		WithRetryDelay(time.Second),
		WithBatchSize(25),
		WithFlushInterval(time.Second),
		WithBatchQueueSize(4),
		WithShutdownTimeout(4*time.Second),
		WithStructuredLogger(logger),
	)

	checks := []struct {
		name string
		ok   bool
	}{
		{"APIHost", cfg.APIHost == "https://eu.posthog.com"},
		{"CapturePageview", cfg.CapturePageview},
		{"InitialURL", cfg.InitialURL == "https://example.com"},
		{"Debug", cfg.Debug},
		{"DistinctID", cfg.DistinctID == "user-1"},
		{"DisableDecide", cfg.DisableDecide},
		{"Timeout", cfg.Timeout == 3*time.Second},
		{"MaxRetries", cfg.MaxRetries == 5},
		{"RetryDelay", cfg.RetryDelay == time.Second},
		{"BatchSize", cfg.BatchSize == 25},
		{"FlushInterval", cfg.FlushInterval == time.Second},
		{"BatchQueueSize", cfg.BatchQueueSize == 4},
		{"ShutdownTimeout", cfg.ShutdownTimeout == 4*time.Second},
		{"StructuredLogger", cfg.StructuredLogger == logger},
	}
	for _, c := range checks {
		if !c.ok {
			t.Errorf("%s not applied", c.name)
		}
	}
}
