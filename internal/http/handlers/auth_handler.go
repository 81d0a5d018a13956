// Auth HTTP handlers.
//
// This file exposes the authentication endpoints:
//   - POST /register   (create an account)
//   - GET  /register   (route confirmation for form-rendering clients)
//   - POST /login      (verify credentials, set the session cookie)
//   - GET  /login      (route confirmation for form-rendering clients)
//   - GET  /logout     (clear the session cookie)
//
// Failed logins return the same 401 regardless of whether the username
// exists, so the endpoint cannot be used to enumerate accounts.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mindhaven/go-support-backend/internal/store"
)

//
// DTOs
//

// CredentialsRequest is the JSON payload for registration and login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// bindCredentials reads credentials from JSON or, for classic form posts,
// from form values.
func bindCredentials(c *gin.Context) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err == nil && (req.Username != "" || req.Password != "") {
		return req, true
	}
	req.Username = c.PostForm("username")
	req.Password = c.PostForm("password")
	return req, req.Username != "" || req.Password != ""
}

//
// Handlers
//

// Register creates a new account.
//
// Responses:
//   - 201 {"status":"registered"}
//   - 400 invalid or missing fields
//   - 409 username already exists
func (h *Handlers) Register(c *gin.Context) {
	req, _ := bindCredentials(c)

	err := h.users.Register(req.Username, req.Password)
	switch {
	case err == nil:
		ok(c, http.StatusCreated, gin.H{"status": "registered"})
	case errors.Is(err, store.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password are required")
	case errors.Is(err, store.ErrDuplicateUser):
		fail(c, http.StatusConflict, ErrCodeConflict, "username already exists")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeRegisterFailed, "could not create account")
	}
}

// Login verifies credentials and sets the session cookie.
//
// Responses:
//   - 200 {"status":"ok","username":"..."}
//   - 400 missing fields
//   - 401 invalid credentials
func (h *Handlers) Login(c *gin.Context) {
	req, _ := bindCredentials(c)
	if req.Username == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password are required")
		return
	}

	if err := h.users.Verify(req.Username, req.Password); err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid username or password")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not verify credentials")
		return
	}

	if err := h.sessions.Issue(c, req.Username); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not start session")
		return
	}
	ok(c, http.StatusOK, gin.H{"status": "ok", "username": req.Username})
}

// Logout clears the session cookie and sends the browser back to the login
// page.
func (h *Handlers) Logout(c *gin.Context) {
	h.sessions.Clear(c)
	c.Redirect(http.StatusFound, "/login")
}

// RegisterPage describes the registration form for clients that render it.
// The HTML itself lives in the frontend; GET only confirms the route.
func (h *Handlers) RegisterPage(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"page": "register", "fields": []string{"username", "password"}})
}

// LoginPage describes the login form for clients that render it.
func (h *Handlers) LoginPage(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"page": "login", "fields": []string{"username", "password"}})
}
