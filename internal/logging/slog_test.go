package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSetLevelFromString(t *testing.T) {
	defer SetLevel(slog.LevelInfo)

	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			SetLevelFromString(tt.input)
			if got := Level(); got != tt.want {
				t.Errorf("SetLevelFromString(%q) level = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetLoggerAndOr(t *testing.T) {
	original := Op()
	defer SetLogger(original)

	SetLogger(nil)
	if Op() != original {
		t.Fatal("SetLogger(nil) must keep the current logger")
	}

	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, nil))
	SetLogger(custom)

	Or(nil).Info("dispatch", "member", "m1")
	if !strings.Contains(buf.String(), "member=m1") {
		t.Errorf("expected output to go through the custom logger, got %q", buf.String())
	}

	other := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if Or(other) != other {
		t.Error("Or must return the explicit logger when set")
	}
}

func TestNew(t *testing.T) {
	defer SetLevel(slog.LevelInfo)

	tests := []struct {
		format string
		want   string
	}{
		{"json", `"member":"m1"`},
		{"JSON", `"member":"m1"`},
		{"text", "member=m1"},
		{"", "member=m1"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, tt.format)

			SetLevel(slog.LevelWarn)
			logger.Info("hidden", "member", "m1")
			if buf.Len() != 0 {
				t.Fatalf("info must be filtered at warn level, got %q", buf.String())
			}

			SetLevel(slog.LevelInfo)
			logger.Info("dispatch", "member", "m1")
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.want)
			}
		})
	}
}
