package httpadapter

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/lost-time-companion/internal/config"
)

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	stack := newTestStack(t, config.Config{
		APIRateLimitRPS:   1,
		APIRateLimitBurst: 1,
	})

	res1 := postJSON(t, stack.handler, "/api/refine-prose", "s1", map[string]string{"message": "one"})
	if res1.Code != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", res1.Code)
	}

	res2 := postJSON(t, stack.handler, "/api/refine-prose", "s1", map[string]string{"message": "two"})
	if res2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", res2.Code)
	}
	if res2.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header for 429 response")
	}
}

func TestRateLimitSkipsHealthz(t *testing.T) {
	stack := newTestStack(t, config.Config{
		APIRateLimitRPS:   1,
		APIRateLimitBurst: 1,
	})

	for i := 0; i < 3; i++ {
		res := httptest.NewRecorder()
		stack.handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if res.Code != http.StatusOK {
			t.Fatalf("healthz request %d expected 200, got %d", i, res.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	stack := newTestStack(t, config.Config{CORSAllowedOrigins: []string{"http://reader.test"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://reader.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	res := httptest.NewRecorder()
	stack.handler.ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if got := res.Header().Get("Access-Control-Allow-Origin"); got != "http://reader.test" {
		t.Fatalf("unexpected allow origin %q", got)
	}
	if got := res.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("expected credentials for a listed origin, got %q", got)
	}
	if got := res.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Fatalf("unexpected max age %q", got)
	}
}

func TestCORSPreflightAllowsSessionHeader(t *testing.T) {
	stack := newTestStack(t, config.Config{CORSAllowedOrigins: []string{"*"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/qa", nil)
	req.Header.Set("Origin", "http://anywhere.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type,x-session-id")
	res := httptest.NewRecorder()
	stack.handler.ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if got := res.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
	if got := res.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Fatalf("wildcard origin must not allow credentials, got %q", got)
	}
	if got := strings.ToLower(res.Header().Get("Access-Control-Allow-Headers")); !strings.Contains(got, "x-session-id") {
		t.Fatalf("expected session header allowed, got %q", got)
	}
}

func TestCORSExposesSessionHeaderOnActualRequest(t *testing.T) {
	stack := newTestStack(t, config.Config{CORSAllowedOrigins: []string{"http://reader.test/"}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://reader.test")
	res := httptest.NewRecorder()
	stack.handler.ServeHTTP(res, req)

	if got := res.Header().Get("Access-Control-Allow-Origin"); got != "http://reader.test" {
		t.Fatalf("unexpected allow origin %q", got)
	}
	if got := res.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, sessionHeader) {
		t.Fatalf("expected session header exposed, got %q", got)
	}
}

func TestCORSIgnoresUnknownOrigin(t *testing.T) {
	stack := newTestStack(t, config.Config{CORSAllowedOrigins: []string{"http://reader.test"}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://elsewhere.test")
	res := httptest.NewRecorder()
	stack.handler.ServeHTTP(res, req)

	if got := res.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow origin, got %q", got)
	}
}
