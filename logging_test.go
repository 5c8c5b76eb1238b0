package posthog

import (
	"bytes"
	"log"
	"log/slog"
	"strings"
	"testing"
)

func TestMaskCredential(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", "****"},
		{"short", "****"},
		{"phc_1234567890abcdef", "phc_************cdef"},
		{"sk_live_abcdef123456", "sk_*************3456"},
		{"abcdefghij", "******ghij"},
	}
	for _, tt := range tests {
		if got := MaskCredential(tt.in); got != tt.want {
			t.Errorf("MaskCredential(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWrapStdLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := WrapStdLogger(log.New(&buf, "", 0))

	logger.Debug("d")
	logger.Info("batch sent", "events", 3, "dangling")
	logger.Warn("w", "k", "v")
	logger.Error("e")

	want := []string{
		"[DEBUG] d",
		"[INFO] batch sent | events=3 dangling=<nil>",
		"[WARN] w | k=v",
		"[ERROR] e",
	}
	got := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(got) != len(want) {
		t.Fatalf("got %d lines: %q", len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger := NewSlogAdapter(base).With("component", "sdk")

	logger.Warn("queue full", "pending", 12)

	out := buf.String()
	for _, want := range []string{"level=WARN", `msg="queue full"`, "component=sdk", "pending=12"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestNewSlogAdapter_NilUsesDefault(t *testing.T) {
	if NewSlogAdapter(nil).logger != slog.Default() {
		t.Error("expected slog.Default()")
	}
}

func TestNopLogger(t *testing.T) {
	var l StructuredLogger = NopLogger{}
	l.Debug("x", "k", "v")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
}
