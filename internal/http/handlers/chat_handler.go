// Chat HTTP handlers.
//
// This file exposes the conversation endpoints:
//   - GET  /            (transcript, welcome turn seeded on first visit)
//   - POST /chat        (send a message, receive the assistant reply)
//   - POST /clear-chat  (erase the transcript)
//   - GET  /resources   (static mental health resource list)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// reply exists for (user, key), POST /chat returns that recorded reply and
// sets `Idempotency-Replayed: true` instead of calling the model again.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mindhaven/go-support-backend/internal/http/middleware"
	"github.com/mindhaven/go-support-backend/internal/repo"
	"github.com/mindhaven/go-support-backend/internal/services"
)

//
// DTOs
//

// ChatRequest is the JSON payload for sending a message.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the assistant reply.
type ChatResponse struct {
	Response string `json:"response"`
}

//
// Handlers
//

// Home returns the user's transcript, seeding the welcome turn when empty.
//
// Responses:
//   - 200 {"username":"...","log":[...]}
//   - 500 persistence failure
func (h *Handlers) Home(c *gin.Context) {
	user := userID(c)
	turns, err := h.convSvc.Transcript(c.Request.Context(), user)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load chat history")
		return
	}
	ok(c, http.StatusOK, gin.H{"username": user, "log": turns})
}

// Chat processes one user message and returns the assistant reply.
//
// Responses:
//   - 200 {"response":"..."}  (including fallback replies on model failure)
//   - 400 missing message
//   - 500 persistence failure
func (h *Handlers) Chat(c *gin.Context) {
	ctx := c.Request.Context()
	user := userID(c)

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "No message provided")
		return
	}

	// Idempotency (replay path): return the recorded reply for (user, key).
	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.DB != nil {
		if rec, err := repo.GetIdempotency(ctx, h.DB, user, idemKey, time.Now().UTC()); err == nil && rec != nil {
			c.Header("Idempotency-Replayed", "true")
			ok(c, rec.Status, ChatResponse{Response: rec.Reply})
			return
		}
	}

	rep, err := h.convSvc.Handle(ctx, user, req.Message)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrEmptyMessage):
		// Whitespace-only payloads pass the binding check but fail trimming.
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "No message provided")
		return
	default:
		fail(c, http.StatusInternalServerError, ErrCodeChatFailed, "could not process message")
		return
	}

	// Idempotency (store path): best effort, duplicates ignored.
	if idemKey != "" && h.DB != nil {
		ttl := h.IdemTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		_, _ = repo.CreateIdempotency(ctx, h.DB, user, idemKey, rep.Text, http.StatusOK, ttl)
	}

	ok(c, http.StatusOK, ChatResponse{Response: rep.Text})
}

// ClearChat erases the transcript.
//
// Responses:
//   - 200 {"status":"cleared"}
//   - 500 persistence failure
func (h *Handlers) ClearChat(c *gin.Context) {
	if err := h.convSvc.Clear(c.Request.Context(), userID(c)); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not clear chat history")
		return
	}
	ok(c, http.StatusOK, gin.H{"status": "cleared"})
}

// resourceEntry is one hotline or support service in the resources list.
type resourceEntry struct {
	Name        string `json:"name"`
	Contact     string `json:"contact"`
	Description string `json:"description"`
}

// mentalHealthResources is the static list served by GET /resources.
var mentalHealthResources = []resourceEntry{
	{
		Name:        "National Suicide Prevention Lifeline",
		Contact:     "988",
		Description: "Free, confidential crisis support in the US, 24/7.",
	},
	{
		Name:        "Crisis Text Line",
		Contact:     "Text HOME to 741741",
		Description: "Text-based crisis support, 24/7.",
	},
	{
		Name:        "Emergency Services",
		Contact:     "911",
		Description: "Call if you or someone else is in immediate danger.",
	},
	{
		Name:        "International Association for Suicide Prevention",
		Contact:     "https://www.iasp.info/resources/Crisis_Centres/",
		Description: "Directory of crisis centres outside the US.",
	},
}

// Resources serves the static mental health resource list.
func (h *Handlers) Resources(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"username": userID(c), "resources": mentalHealthResources})
}
