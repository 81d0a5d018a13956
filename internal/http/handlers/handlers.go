// Handler wiring.
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Business rules (crisis handling,
// scoring, context windows) live in the services package.
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mindhaven/go-support-backend/internal/domain"
	"github.com/mindhaven/go-support-backend/internal/http/middleware"
	"github.com/mindhaven/go-support-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// ConversationService defines the chat operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ConversationService interface {
	// Transcript returns the user's chat history, seeding the welcome turn
	// on first use.
	Transcript(ctx context.Context, user string) ([]domain.ChatTurn, error)
	// Handle processes one user message and returns the assistant reply.
	Handle(ctx context.Context, user, message string) (*services.Reply, error)
	// Clear erases the user's chat history.
	Clear(ctx context.Context, user string) error
}

// MoodService defines the journal operations consumed by HTTP handlers.
type MoodService interface {
	// Record appends a journal entry with a derived score.
	Record(ctx context.Context, user, mood, thoughts string) (*domain.MoodEntry, error)
	// Entries returns the full journal in insertion order.
	Entries(ctx context.Context, user string) ([]domain.MoodEntry, error)
	// Trends returns the (date, score) series for the most recent entries.
	Trends(ctx context.Context, user string, limit int) ([]domain.TrendPoint, error)
}

// UserRegistry defines the credential operations consumed by auth handlers.
// *store.UserStore satisfies it.
type UserRegistry interface {
	Register(username, password string) error
	Verify(username, password string) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for auth, chat, and mood journaling.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	users    UserRegistry
	sessions *middleware.Sessions
	convSvc  ConversationService
	moodSvc  MoodService

	// DB and IdemTTL back the Idempotency-Key replay path on POST /chat.
	// A nil DB disables replay without affecting normal processing.
	DB      *gorm.DB
	IdemTTL time.Duration
}

// New constructs a Handlers instance bound to the given services.
func New(users UserRegistry, sessions *middleware.Sessions, convSvc ConversationService, moodSvc MoodService, db *gorm.DB, idemTTL time.Duration) *Handlers {
	return &Handlers{
		users:    users,
		sessions: sessions,
		convSvc:  convSvc,
		moodSvc:  moodSvc,
		DB:       db,
		IdemTTL:  idemTTL,
	}
}

// userID extracts the authenticated username from the Gin context, as stored
// by the session middleware. Handlers behind RequireAuth can rely on it being
// non-empty.
func userID(c *gin.Context) string {
	if v, ok := c.Get(middleware.UserIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
