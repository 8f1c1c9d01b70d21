package ctxkey

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestWithRequest(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithRequest(context.Background(), "req-42", base.With("request_id", "req-42"))

	if got := RequestID(ctx); got != "req-42" {
		t.Errorf("RequestID() = %q, want %q", got, "req-42")
	}

	Logger(ctx, slog.Default()).Info("hello")
	if !strings.Contains(buf.String(), "request_id=req-42") {
		t.Errorf("log output = %q, want request_id field", buf.String())
	}
}

func TestLogger_Fallback(t *testing.T) {
	t.Parallel()

	fallback := slog.Default()
	if got := Logger(context.Background(), fallback); got != fallback {
		t.Error("Logger() without value should return fallback")
	}
	if got := RequestID(context.Background()); got != "" {
		t.Errorf("RequestID() = %q, want empty", got)
	}
}
