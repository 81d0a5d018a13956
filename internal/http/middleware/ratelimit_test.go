package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(rl *RateLimiter, pre ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	for _, h := range pre {
		r.Use(h)
	}
	r.Use(rl.Handler())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	rl := NewRateLimiter(100, 5, KeyByUserOrIP())
	r := newLimitedRouter(rl)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}

func TestRateLimiterRejectsBeyondBurst(t *testing.T) {
	rl := NewRateLimiter(0.0001, 1, KeyByUserOrIP())
	r := newLimitedRouter(rl)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After header, got %q", w.Header().Get("Retry-After"))
	}
	if !strings.Contains(w.Body.String(), "rate_limited") {
		t.Fatalf("expected rate_limited envelope, got %s", w.Body.String())
	}
}

func TestRateLimiterKeysUsersSeparately(t *testing.T) {
	rl := NewRateLimiter(0.0001, 1, KeyByUserOrIP())

	asUser := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) { c.Set(UserIDKey, name) }
	}

	alice := newLimitedRouter(rl, asUser("alice"))
	bob := newLimitedRouter(rl, asUser("bob"))

	w := httptest.NewRecorder()
	alice.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("alice's first request should pass, got %d", w.Code)
	}

	// Alice exhausted her bucket; Bob has his own.
	w = httptest.NewRecorder()
	alice.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("alice should be limited, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	bob.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("bob should not share alice's bucket, got %d", w.Code)
	}
}

func TestRateLimiterBypassForReplay(t *testing.T) {
	rl := NewRateLimiter(0.0001, 1, KeyByUserOrIP())
	markReplay := func(c *gin.Context) { c.Set(ctxKeyRateBypass, true) }
	r := newLimitedRouter(rl, markReplay)

	// Every request bypasses limiting, none consume tokens.
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("replay %d should bypass limiter, got %d", i, w.Code)
		}
	}
}

func TestNewRateLimiterCoercesBurst(t *testing.T) {
	rl := NewRateLimiter(1, 0, KeyByUserOrIP())
	if rl.burst != 1 {
		t.Fatalf("expected burst coerced to 1, got %d", rl.burst)
	}
}
