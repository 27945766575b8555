package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// denyAllLimiter rejects every request.
type denyAllLimiter struct{}

func (denyAllLimiter) Allow() bool { return false }

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	h := NewHandler(&fakeService{}, ConfigInfo{})
	router := NewRouter(h, testLogger(),
		WithAccessLogging(false),
		WithRateLimiter(denyAllLimiter{}),
	)

	rec := doGet(t, router, "/health")
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	h := NewHandler(&fakeService{}, ConfigInfo{})
	router := NewRouter(h, testLogger(), WithAccessLogging(false))

	req := httptest.NewRequest(http.MethodOptions, "/api/zip-to-city", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS headers on preflight")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	t.Parallel()

	h := NewHandler(&fakeService{}, ConfigInfo{})
	router := NewRouter(h, testLogger(), WithAccessLogging(false))

	t.Run("caller-provided id is kept", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
			t.Errorf("expected 'abc-123', got %q", got)
		}
	})

	t.Run("id is generated when absent", func(t *testing.T) {
		t.Parallel()
		rec := doGet(t, router, "/health")
		if rec.Header().Get("X-Request-ID") == "" {
			t.Error("expected a generated request id")
		}
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	panicker := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	h := recoveryMiddleware(testLogger(), panicker)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
