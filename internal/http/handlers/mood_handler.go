// Mood journal HTTP handlers.
//
// This file exposes the journaling endpoints:
//   - GET  /mood             (list journal entries)
//   - POST /mood             (record an entry; accepts form posts and JSON)
//   - GET  /api/mood-trends  (recent (date, score) series for the chart)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mindhaven/go-support-backend/internal/services"
	"github.com/mindhaven/go-support-backend/internal/utils"
)

//
// DTOs
//

// MoodRequest is the payload for recording a journal entry.
type MoodRequest struct {
	Mood     string `json:"mood" form:"mood"`
	Thoughts string `json:"thoughts" form:"thoughts"`
}

//
// Handlers
//

// MoodPage returns the user's journal entries.
//
// Responses:
//   - 200 {"username":"...","entries":[...]}
//   - 500 persistence failure
func (h *Handlers) MoodPage(c *gin.Context) {
	user := userID(c)
	entries, err := h.moodSvc.Entries(c.Request.Context(), user)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load journal")
		return
	}
	ok(c, http.StatusOK, gin.H{"username": user, "entries": entries})
}

// RecordMood appends a journal entry. Browser form posts are answered with a
// 303 back to the mood page; JSON clients get the created entry.
//
// Responses:
//   - 201 created entry (JSON clients)
//   - 303 redirect to /mood (form posts)
//   - 400 missing mood or thoughts
//   - 500 persistence failure
func (h *Handlers) RecordMood(c *gin.Context) {
	var req MoodRequest
	isForm := c.ContentType() == "application/x-www-form-urlencoded" ||
		c.ContentType() == "multipart/form-data"
	if isForm {
		req.Mood = c.PostForm("mood")
		req.Thoughts = c.PostForm("thoughts")
	} else if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "mood and thoughts are required")
		return
	}

	entry, err := h.moodSvc.Record(c.Request.Context(), userID(c), req.Mood, req.Thoughts)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrEmptyMood):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "mood and thoughts are required")
		return
	default:
		fail(c, http.StatusInternalServerError, ErrCodeJournalFailed, "could not save journal entry")
		return
	}

	if isForm {
		c.Redirect(http.StatusSeeOther, "/mood")
		return
	}
	ok(c, http.StatusCreated, entry)
}

// MoodTrends serves the (date, score) series for the chart. The optional
// `limit` query parameter caps how many recent entries are included.
//
// Responses:
//   - 200 [{"date":"2026-01-02","score":4}, ...]  (empty array when no entries)
//   - 500 persistence failure
func (h *Handlers) MoodTrends(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 0)
	points, err := h.moodSvc.Trends(c.Request.Context(), userID(c), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load mood trends")
		return
	}
	ok(c, http.StatusOK, points)
}
