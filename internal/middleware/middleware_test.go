package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rifs/rifs-api/internal/pkg/logger"
)

func TestRequestIDPropagates(t *testing.T) {
	var seen string
	var hasLogger bool
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		hasLogger = logger.FromContext(r.Context()) != &log.Logger
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if seen != "abc-123" || w.Header().Get("X-Request-ID") != "abc-123" {
		t.Fatalf("expected the incoming id to be kept, got %q / %q", seen, w.Header().Get("X-Request-ID"))
	}
	if !hasLogger {
		t.Fatal("expected a request logger in the context")
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(w.Header().Get("X-Request-ID")) != 36 {
		t.Fatalf("expected a generated uuid, got %q", w.Header().Get("X-Request-ID"))
	}
}

func TestRecoverReturns500(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestTimeoutSetsDeadline(t *testing.T) {
	var err error
	h := Timeout(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		err = r.Context().Err()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestLoggerCapturesStatus(t *testing.T) {
	var wrapped *responseWriter
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped = w.(*responseWriter)
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if wrapped.statusCode != http.StatusTeapot || wrapped.bytes != 5 {
		t.Fatalf("unexpected capture: %d status, %d bytes", wrapped.statusCode, wrapped.bytes)
	}
	if _, _, err := wrapped.Hijack(); err == nil {
		t.Fatal("a recorder cannot be hijacked")
	}
}
