package contextutil

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerFromContext_Default(t *testing.T) {
	if got := LoggerFromContext(context.Background()); got != slog.Default() {
		t.Error("LoggerFromContext() without logger should return slog.Default()")
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))
	ctx = With(ctx, "request_id", "r1")
	ctx = With(ctx, "session_id", "s1")

	LoggerFromContext(ctx).Info("hello")

	out := buf.String()
	if !strings.Contains(out, "request_id=r1") || !strings.Contains(out, "session_id=s1") {
		t.Errorf("log output = %q, want both attributes", out)
	}
}
