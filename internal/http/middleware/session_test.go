package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newSessions(ttl time.Duration) *Sessions {
	return NewSessions("test-secret", ttl, "mh_session", false)
}

// issueCookie runs Issue through a throwaway context and returns the cookie.
func issueCookie(t *testing.T, s *Sessions, username string) *http.Cookie {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/login", nil)
	if err := s.Issue(c, username); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	res := w.Result()
	for _, ck := range res.Cookies() {
		if ck.Name == "mh_session" {
			return ck
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func newAuthRouter(s *Sessions, mode AuthMode) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/protected", s.RequireAuth(mode), func(c *gin.Context) {
		uid, _ := c.Get(UserIDKey)
		c.JSON(http.StatusOK, gin.H{"user": uid})
	})
	return r
}

func TestIssueSetsHardenedCookie(t *testing.T) {
	ck := issueCookie(t, newSessions(time.Hour), "alice")
	if !ck.HttpOnly {
		t.Fatal("cookie must be HttpOnly")
	}
	if ck.SameSite != http.SameSiteLaxMode {
		t.Fatalf("expected SameSite=Lax, got %v", ck.SameSite)
	}
	if ck.Path != "/" {
		t.Fatalf("expected Path=/, got %q", ck.Path)
	}
	if ck.MaxAge != int(time.Hour.Seconds()) {
		t.Fatalf("expected MaxAge=3600, got %d", ck.MaxAge)
	}
}

// newIdentifyRouter mounts Identify globally with an open route, mirroring
// how the real router decodes identity ahead of the auth gates.
func newIdentifyRouter(s *Sessions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(s.Identify())
	r.GET("/open", func(c *gin.Context) {
		uid, _ := c.Get(UserIDKey)
		c.JSON(http.StatusOK, gin.H{"user": uid})
	})
	return r
}

func TestIdentifyDecodesValidCookie(t *testing.T) {
	s := newSessions(time.Hour)
	r := newIdentifyRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.AddCookie(issueCookie(t, s, "alice"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"user":"alice"`) {
		t.Fatalf("expected decoded identity, got %s", w.Body.String())
	}
}

func TestIdentifyPassesThroughWithoutSession(t *testing.T) {
	s := newSessions(time.Hour)
	r := newIdentifyRouter(s)

	// No cookie, then a tampered one: both reach the handler with no
	// identity set and no rejection.
	for _, tamper := range []bool{false, true} {
		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		if tamper {
			ck := issueCookie(t, s, "alice")
			ck.Value += "x"
			req.AddCookie(ck)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("tamper=%v: Identify must not reject, got %d", tamper, w.Code)
		}
		if strings.Contains(w.Body.String(), "alice") {
			t.Fatalf("tamper=%v: no identity expected, got %s", tamper, w.Body.String())
		}
	}
}

func TestRequireAuthTrustsDecodedIdentity(t *testing.T) {
	s := newSessions(time.Hour)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(s.Identify())
	r.GET("/protected", s.RequireAuth(AuthJSON), func(c *gin.Context) {
		uid, _ := c.Get(UserIDKey)
		c.JSON(http.StatusOK, gin.H{"user": uid})
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(issueCookie(t, s, "alice"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"user":"alice"`) {
		t.Fatalf("expected admission via decoded identity, got %d %s", w.Code, w.Body.String())
	}
}

func TestRequireAuthAdmitsValidCookie(t *testing.T) {
	s := newSessions(time.Hour)
	r := newAuthRouter(s, AuthJSON)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(issueCookie(t, s, "alice"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"user":"alice"`) {
		t.Fatalf("expected username in context, got %s", w.Body.String())
	}
}

func TestRequireAuthJSONRejectsMissingCookie(t *testing.T) {
	r := newAuthRouter(newSessions(time.Hour), AuthJSON)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"code":"unauthorized"`) || !strings.Contains(body, "request_id") {
		t.Fatalf("expected error envelope, got %s", body)
	}
}

func TestRequireAuthRedirectMode(t *testing.T) {
	r := newAuthRouter(newSessions(time.Hour), AuthRedirect)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestRequireAuthRejectsTamperedToken(t *testing.T) {
	s := newSessions(time.Hour)
	r := newAuthRouter(s, AuthJSON)

	ck := issueCookie(t, s, "alice")
	ck.Value += "x"
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(ck)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for tampered token, got %d", w.Code)
	}
}

func TestRequireAuthRejectsForeignSecret(t *testing.T) {
	other := NewSessions("different-secret", time.Hour, "mh_session", false)
	r := newAuthRouter(newSessions(time.Hour), AuthJSON)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(issueCookie(t, other, "alice"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for foreign signature, got %d", w.Code)
	}
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	s := newSessions(-time.Minute) // already expired at issue time
	r := newAuthRouter(s, AuthJSON)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(issueCookie(t, s, "alice"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", w.Code)
	}
}

func TestClearExpiresCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/logout", nil)

	newSessions(time.Hour).Clear(c)

	var found bool
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "mh_session" {
			found = true
			if ck.MaxAge >= 0 || ck.Value != "" {
				t.Fatalf("expected expired empty cookie, got MaxAge=%d Value=%q", ck.MaxAge, ck.Value)
			}
		}
	}
	if !found {
		t.Fatal("expected session cookie in response")
	}
}
