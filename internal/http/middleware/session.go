// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements cookie-based session authentication. Sessions are
// stateless: a signed JWT (HS256) carrying the username rides in an HttpOnly
// cookie, so there is no server-side session table to maintain or expire.
//
//   - Sessions.Issue writes the cookie after successful login/registration.
//   - Sessions.Clear expires it on logout.
//   - Sessions.Identify decodes the cookie globally without rejecting, so
//     identity-keyed middleware works before the auth gate.
//   - Sessions.RequireAuth guards route groups, storing the authenticated
//     username in the Gin context under "userID".
//
// Browser page routes redirect to /login when unauthenticated; API routes
// receive a JSON 401 envelope instead. The distinction is configured per
// route group via the mode argument.
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
)

// UserIDKey is the Gin context key under which RequireAuth stores the
// authenticated username.
const UserIDKey = "userID"

// AuthMode selects how RequireAuth rejects unauthenticated requests.
type AuthMode int

const (
	// AuthRedirect sends 302 Found to /login, for browser page routes.
	AuthRedirect AuthMode = iota
	// AuthJSON sends a 401 JSON envelope, for API routes.
	AuthJSON
)

// Sessions issues and verifies session cookies.
type Sessions struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
}

// NewSessions constructs a session manager. secret signs tokens, ttl bounds
// their validity, cookieName is the cookie attribute name, and secure marks
// the cookie HTTPS-only.
func NewSessions(secret string, ttl time.Duration, cookieName string, secure bool) *Sessions {
	return &Sessions{
		secret:     []byte(secret),
		ttl:        ttl,
		cookieName: cookieName,
		secure:     secure,
	}
}

// Issue signs a session token for username and sets it as an HttpOnly cookie
// on the response.
func (s *Sessions) Issue(c *gin.Context, username string) error {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return err
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (s *Sessions) Clear(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// verify parses and validates the token, returning the subject username.
func (s *Sessions) verify(token string) (string, bool) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", false
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", false
	}
	return sub, true
}

// Identify decodes the session cookie when present and valid and stores the
// username under UserIDKey. It never rejects a request. Installed early in
// the global chain so identity-keyed middleware downstream (the idempotency
// replay lookup, per-user rate buckets) sees the user before the per-group
// auth gate runs.
func (s *Sessions) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		if cookie, err := c.Cookie(s.cookieName); err == nil {
			if username, ok := s.verify(cookie); ok {
				c.Set(UserIDKey, username)
			}
		}
		c.Next()
	}
}

// RequireAuth returns middleware that admits only requests carrying a valid
// session cookie. On success the username is stored under UserIDKey.
// Expired and tampered tokens are rejected the same way as missing ones.
// An identity already decoded by Identify is trusted without re-parsing.
func (s *Sessions) RequireAuth(mode AuthMode) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v, ok := c.Get(UserIDKey); ok {
			if username, _ := v.(string); username != "" {
				c.Next()
				return
			}
		}

		cookie, err := c.Cookie(s.cookieName)
		if err == nil {
			if username, ok := s.verify(cookie); ok {
				c.Set(UserIDKey, username)
				c.Next()
				return
			}
		}

		switch mode {
		case AuthRedirect:
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
		default:
			rid, _ := c.Get(requestIDKey)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": asString(rid),
				"code":       "unauthorized",
				"message":    "authentication required",
			})
		}
	}
}
