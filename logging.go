package posthog

import (
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"
)

// StructuredLogger provides leveled, key-value logging for the SDK.
// It is compatible with slog via NewSlogAdapter.
type StructuredLogger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, args ...any)
	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, args ...any)
	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, args ...any)
	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, args ...any)
}

// Metrics is an optional interface for SDK telemetry.
type Metrics interface {
	// IncrementCounter increments a counter metric.
	IncrementCounter(name string, value int64)
	// RecordDuration records a duration metric.
	RecordDuration(name string, duration time.Duration)
	// SetGauge sets a gauge metric.
	SetGauge(name string, value float64)
}

// stdLoggerWrapper adapts a *log.Logger to StructuredLogger.
type stdLoggerWrapper struct {
	logger *log.Logger
}

// WrapStdLogger wraps a standard library *log.Logger to implement StructuredLogger.
// All levels are written through Printf with the level as a prefix.
func WrapStdLogger(l *log.Logger) StructuredLogger {
	return &stdLoggerWrapper{logger: l}
}

func (w *stdLoggerWrapper) Debug(msg string, args ...any) {
	w.logger.Print("[DEBUG] " + msg + formatArgs(args))
}

func (w *stdLoggerWrapper) Info(msg string, args ...any) {
	w.logger.Print("[INFO] " + msg + formatArgs(args))
}

func (w *stdLoggerWrapper) Warn(msg string, args ...any) {
	w.logger.Print("[WARN] " + msg + formatArgs(args))
}

func (w *stdLoggerWrapper) Error(msg string, args ...any) {
	w.logger.Print("[ERROR] " + msg + formatArgs(args))
}

// formatArgs formats structured logging arguments as a string.
func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(" |")
	for i := 0; i < len(args); i += 2 {
		var value any
		if i+1 < len(args) {
			value = args[i+1]
		}
		fmt.Fprintf(&b, " %v=%v", args[i], value)
	}
	return b.String()
}

// NopLogger is a logger that discards all log messages.
type NopLogger struct{}

// Debug implements StructuredLogger.Debug.
func (NopLogger) Debug(msg string, args ...any) {}

// Info implements StructuredLogger.Info.
func (NopLogger) Info(msg string, args ...any) {}

// Warn implements StructuredLogger.Warn.
func (NopLogger) Warn(msg string, args ...any) {}

// Error implements StructuredLogger.Error.
func (NopLogger) Error(msg string, args ...any) {}

var (
	_ StructuredLogger = NopLogger{}
	_ StructuredLogger = (*stdLoggerWrapper)(nil)
	_ StructuredLogger = (*SlogAdapter)(nil)
)

// MaskCredential masks an API key for safe logging.
// It keeps the "phc_" style prefix and the last 4 characters.
//
//	MaskCredential("phc_1234567890abcdef") => "phc_************cdef"
//	MaskCredential("short") => "****"
func MaskCredential(s string) string {
	if s == "" {
		return ""
	}

	const visibleSuffix = 4

	if len(s) <= visibleSuffix+1 {
		return "****"
	}

	prefixEnd := strings.IndexByte(s, '_') + 1
	if prefixEnd <= 0 || prefixEnd > len(s)-visibleSuffix {
		prefixEnd = 0
	}

	maskLen := len(s) - prefixEnd - visibleSuffix
	return s[:prefixEnd] + strings.Repeat("*", maskLen) + s[len(s)-visibleSuffix:]
}

// SlogAdapter adapts a slog.Logger to the StructuredLogger interface.
//
//	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
//	client, _ := posthog.Init(key,
//	    posthog.WithStructuredLogger(posthog.NewSlogAdapter(logger)),
//	)
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter wrapping the given slog.Logger.
// If logger is nil, slog.Default() is used.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Debug implements StructuredLogger.Debug.
func (a *SlogAdapter) Debug(msg string, args ...any) {
	a.logger.Debug(msg, args...)
}

// Info implements StructuredLogger.Info.
func (a *SlogAdapter) Info(msg string, args ...any) {
	a.logger.Info(msg, args...)
}

// Warn implements StructuredLogger.Warn.
func (a *SlogAdapter) Warn(msg string, args ...any) {
	a.logger.Warn(msg, args...)
}

// Error implements StructuredLogger.Error.
func (a *SlogAdapter) Error(msg string, args ...any) {
	a.logger.Error(msg, args...)
}

// With returns a new SlogAdapter with the given attributes added.
func (a *SlogAdapter) With(args ...any) *SlogAdapter {
	return &SlogAdapter{logger: a.logger.With(args...)}
}
