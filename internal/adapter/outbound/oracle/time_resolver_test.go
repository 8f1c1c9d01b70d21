package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/Sentinel-Gate/intentresolver/internal/ctxkey"
	"github.com/Sentinel-Gate/intentresolver/internal/domain/timenorm"
)

var reference = time.Date(2025, 1, 20, 9, 30, 0, 0, time.UTC)

func newTestResolver(t *testing.T, srv *httptest.Server) *TimeResolver {
	t.Helper()
	r, err := NewTimeResolver(
		Config{BaseURL: srv.URL + "/v1/", APIKey: "sk-test", Model: "test-model"},
		WithHTTPClient(srv.Client()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("NewTimeResolver() error: %v", err)
	}
	return r
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
	})
}

func TestResolveTime_Request(t *testing.T) {
	defer goleak.VerifyNone(t)

	var got chatRequest
	var auth, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, path = r.Header.Get("Authorization"), r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		reply(w, " 2025-01-20T11:00:00Z\n")
	}))
	defer srv.Close()

	out, err := newTestResolver(t, srv).ResolveTime(context.Background(), "tonight at 6", reference, "GMT+7")
	if err != nil {
		t.Fatalf("ResolveTime() error: %v", err)
	}
	if out != "2025-01-20T11:00:00Z" {
		t.Errorf("ResolveTime() = %q, want trimmed timestamp", out)
	}
	if path != "/v1/chat/completions" {
		t.Errorf("path = %q, want /v1/chat/completions", path)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Model != "test-model" || len(got.Messages) != 2 {
		t.Fatalf("request = %+v", got)
	}
	user := got.Messages[1].Content
	for _, want := range []string{"2025-01-20T09:30:00Z", "GMT+7", `"tonight at 6"`} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt %q missing %q", user, want)
		}
	}
	if !strings.Contains(got.Messages[0].Content, "ERROR") {
		t.Error("system prompt should name the ERROR sentinel")
	}
}

func TestResolveTime_PropagatesRequestID(t *testing.T) {
	defer goleak.VerifyNone(t)

	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		reply(w, "2025-01-20T11:00:00Z")
	}))
	defer srv.Close()

	ctx := ctxkey.WithRequest(context.Background(), "req-7", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, err := newTestResolver(t, srv).ResolveTime(ctx, "tonight", reference, "UTC"); err != nil {
		t.Fatalf("ResolveTime() error: %v", err)
	}
	if gotID != "req-7" {
		t.Errorf("X-Request-ID = %q, want %q", gotID, "req-7")
	}
}

func TestResolveTime_ThroughNormalizer(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []struct {
		reply   string
		want    string
		wantErr error
	}{
		{"The reminder is at 2025-01-21T02:00:00Z.", "2025-01-21T02:00:00Z", nil},
		{"ERROR", "", timenorm.ErrUnresolvable},
		{"2025-01-21 02:00", "", timenorm.ErrMalformedTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				reply(w, tt.reply)
			}))
			defer srv.Close()

			n := timenorm.New(newTestResolver(t, srv), timenorm.WithClock(func() time.Time { return reference }))
			got, err := n.Normalize(context.Background(), "tomorrow 9am", "Asia/Jakarta")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Normalize() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Normalize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveTime_Failures(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
			},
			want: "unexpected status 429",
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("<html>"))
			},
			want: "decode response",
		},
		{
			name: "api error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"error":{"message":"model not found"}}`))
			},
			want: "model not found",
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"choices":[]}`))
			},
			want: "no choices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := newTestResolver(t, srv).ResolveTime(context.Background(), "x", reference, "UTC")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ResolveTime() error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestResolveTime_ContextCanceled(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestResolver(t, srv).ResolveTime(ctx, "x", reference, "UTC")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ResolveTime() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestNewTimeResolver_Validation(t *testing.T) {
	if _, err := NewTimeResolver(Config{Model: "m"}); err == nil {
		t.Error("expected error for missing base URL")
	}
	if _, err := NewTimeResolver(Config{BaseURL: "http://localhost"}); err == nil {
		t.Error("expected error for missing model")
	}
	r, err := NewTimeResolver(Config{BaseURL: "http://localhost/v1", Model: "m"})
	if err != nil {
		t.Fatalf("NewTimeResolver() error: %v", err)
	}
	if r.httpClient.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", r.httpClient.Timeout, DefaultTimeout)
	}
}
