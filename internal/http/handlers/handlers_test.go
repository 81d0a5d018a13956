package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mindhaven/go-support-backend/internal/domain"
	"github.com/mindhaven/go-support-backend/internal/http/middleware"
	"github.com/mindhaven/go-support-backend/internal/services"
)

// ---------- fakes ----------

type fakeRegistry struct {
	registerErr error
	verifyErr   error
	registered  []string
}

func (f *fakeRegistry) Register(username, password string) error {
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = append(f.registered, username)
	return nil
}

func (f *fakeRegistry) Verify(username, password string) error { return f.verifyErr }

type fakeConversation struct {
	transcript []domain.ChatTurn
	reply      *services.Reply
	handleErr  error
	clearErr   error
	loadErr    error

	lastUser    string
	lastMessage string
	cleared     bool
	handleCalls int
}

func (f *fakeConversation) Transcript(_ context.Context, user string) ([]domain.ChatTurn, error) {
	f.lastUser = user
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.transcript, nil
}

func (f *fakeConversation) Handle(_ context.Context, user, message string) (*services.Reply, error) {
	f.handleCalls++
	f.lastUser, f.lastMessage = user, message
	if f.handleErr != nil {
		return nil, f.handleErr
	}
	return f.reply, nil
}

func (f *fakeConversation) Clear(_ context.Context, user string) error {
	f.lastUser = user
	f.cleared = true
	return f.clearErr
}

type fakeMood struct {
	entries   []domain.MoodEntry
	points    []domain.TrendPoint
	recordErr error
	loadErr   error

	lastMood     string
	lastThoughts string
	lastLimit    int
}

func (f *fakeMood) Record(_ context.Context, user, mood, thoughts string) (*domain.MoodEntry, error) {
	f.lastMood, f.lastThoughts = mood, thoughts
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	return &domain.MoodEntry{Timestamp: "2026-01-02 10:00", Mood: mood, Thoughts: thoughts, Score: 4}, nil
}

func (f *fakeMood) Entries(_ context.Context, user string) ([]domain.MoodEntry, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.entries, nil
}

func (f *fakeMood) Trends(_ context.Context, user string, limit int) ([]domain.TrendPoint, error) {
	f.lastLimit = limit
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.points, nil
}

// ---------- wiring helpers ----------

type testEnv struct {
	registry *fakeRegistry
	conv     *fakeConversation
	mood     *fakeMood
	router   *gin.Engine
}

// newTestEnv wires the full route set with a stub auth layer that trusts the
// X-User-ID header, so tests can target endpoints directly.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		registry: &fakeRegistry{},
		conv:     &fakeConversation{reply: &services.Reply{Text: "I'm listening."}},
		mood:     &fakeMood{},
	}

	sessions := middleware.NewSessions("test-secret", time.Hour, "mh_session", false)
	h := New(env.registry, sessions, env.conv, env.mood, nil, 0)

	asUser := func(c *gin.Context) {
		if uid := c.GetHeader("X-User-ID"); uid != "" {
			c.Set(middleware.UserIDKey, uid)
		}
		c.Next()
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/register", h.Register)
	r.GET("/register", h.RegisterPage)
	r.POST("/login", h.Login)
	r.GET("/login", h.LoginPage)
	r.GET("/logout", h.Logout)
	r.GET("/", asUser, h.Home)
	r.POST("/chat", asUser, h.Chat)
	r.POST("/clear-chat", asUser, h.ClearChat)
	r.GET("/resources", asUser, h.Resources)
	r.GET("/mood", asUser, h.MoodPage)
	r.POST("/mood", asUser, h.RecordMood)
	r.GET("/api/mood-trends", asUser, h.MoodTrends)

	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-User-ID", "alice")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
