package log

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerPrependsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentMentor, Output: &buf})
	l.Info("turn finished", FieldUserID, "u1")
	l.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "component=mentor") || !strings.Contains(out, "user_id=u1") {
		t.Fatalf("unexpected output: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record should be filtered: %s", out)
	}

	buf.Reset()
	l.WithComponent(ComponentSync).Warn("read failed")
	if !strings.Contains(buf.String(), "component=sync") || strings.Contains(buf.String(), "component=mentor") {
		t.Fatalf("expected replaced component: %s", buf.String())
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: slog.LevelInfo, Output: &buf})

	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).InfoContext(r.Context(), "inside")
	})
	h = RequestIDMiddleware(func(*http.Request) string { return "req_abc" })(h)
	h = Middleware(base)(h)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(buf.String(), "request_id=req_abc") {
		t.Fatalf("expected request id in log: %s", buf.String())
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("unexpected fallback logger: %+v", l)
	}
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Output: &buf}))
	r := httptest.NewRequest(http.MethodPost, "/api/chat", nil)

	sl.LogHTTPEnd(context.Background(), r, http.StatusConflict, 3, "1.2.3.4")
	if !strings.Contains(buf.String(), "level=WARN") || !strings.Contains(buf.String(), "status_code=409") {
		t.Fatalf("expected warn record: %s", buf.String())
	}
	buf.Reset()
	sl.LogHTTPEnd(context.Background(), r, http.StatusBadGateway, 12, "1.2.3.4")
	if !strings.Contains(buf.String(), "level=ERROR") || !strings.Contains(buf.String(), "success=false") {
		t.Fatalf("expected error record: %s", buf.String())
	}
	buf.Reset()
	sl.LogLedgerWrite(context.Background(), OpCreate, "u1", "Earning", 15050, "2024-05-15")
	if !strings.Contains(buf.String(), "amount_cents=15050") || !strings.Contains(buf.String(), "user_id=u1") {
		t.Fatalf("expected ledger record: %s", buf.String())
	}
}
