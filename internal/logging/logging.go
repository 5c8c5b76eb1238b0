// Package logging adapts logrus to posthog.StructuredLogger.
package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	posthog "github.com/jdziat/posthog-go"
)

// New creates a logrus logger writing to w at the named level.
// An unknown level falls back to info; format "json" selects the JSON
// formatter, anything else the text formatter.
func New(w io.Writer, level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	return logger
}

var _ posthog.StructuredLogger = (*Adapter)(nil)

// Adapter implements posthog.StructuredLogger on a logrus entry.
type Adapter struct {
	entry *logrus.Entry
}

// NewAdapter wraps logger. A nil logger uses the logrus standard logger.
func NewAdapter(logger *logrus.Logger) *Adapter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Adapter{entry: logrus.NewEntry(logger)}
}

// With returns an Adapter whose entries carry the given key-value pairs.
func (a *Adapter) With(args ...any) *Adapter {
	return &Adapter{entry: a.entry.WithFields(fields(args))}
}

func (a *Adapter) Debug(msg string, args ...any) {
	a.entry.WithFields(fields(args)).Debug(msg)
}

func (a *Adapter) Info(msg string, args ...any) {
	a.entry.WithFields(fields(args)).Info(msg)
}

func (a *Adapter) Warn(msg string, args ...any) {
	a.entry.WithFields(fields(args)).Warn(msg)
}

func (a *Adapter) Error(msg string, args ...any) {
	a.entry.WithFields(fields(args)).Error(msg)
}

// fields turns alternating key-value args into logrus fields. A trailing
// key without a value is recorded under "!BADKEY", as slog does.
func fields(args []any) logrus.Fields {
	f := make(logrus.Fields, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			f["!BADKEY"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		f[key] = args[i+1]
	}
	return f
}
