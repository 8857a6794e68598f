package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.raw); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestFromContextDefault(t *testing.T) {
	if got := FromContext(context.Background()); got != L {
		t.Error("expected global logger when context has none")
	}
}

func TestWithContextRoundTrip(t *testing.T) {
	want := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := WithContext(context.Background(), want)
	if got := FromContext(ctx); got != want {
		t.Error("expected logger stored in context")
	}
}
