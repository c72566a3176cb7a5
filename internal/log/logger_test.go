package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentLedger, Output: &buf})

	l.InfoContext(context.Background(), "Transaction applied", FieldAccount, "Checking")
	l.DebugContext(context.Background(), "hidden")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected a single JSON record, got %q: %v", buf.String(), err)
	}
	if rec[FieldComponent] != ComponentLedger || rec[FieldAccount] != "Checking" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestMiddlewareAttachesRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentHTTP, Output: &buf})

	h := Middleware(base, func(*http.Request) string { return "req-1" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		LogError(r.Context(), "save failed", errors.New("boom"), ErrorTypeConnectivity, OpSave, nil)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log: %v (%q)", err, buf.String())
	}
	if rec[FieldRequestID] != "req-1" || rec[FieldErrorType] != ErrorTypeConnectivity || rec[FieldError] != "boom" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if l := FromContext(context.Background()); l.Component() != "unknown" {
		t.Errorf("component = %q, want unknown", l.Component())
	}
}
