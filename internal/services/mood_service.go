// Package services – MoodService
//
// This file implements MoodService, which owns the mood journal: recording
// entries with a derived 1-5 score and serving the entry list and the trend
// series consumed by the mood chart.
package services

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mindhaven/go-support-backend/internal/domain"
)

// DefaultTrendsLimit is how many recent entries the trend series covers when
// the caller does not ask for a different window. MaxTrendsLimit caps
// caller-supplied windows to roughly a year of daily entries.
const (
	DefaultTrendsLimit = 30
	MaxTrendsLimit     = 365
)

// MoodStore defines the journal persistence contract required by MoodService.
// *store.DataStore satisfies it.
type MoodStore interface {
	LoadMood(user string) ([]domain.MoodEntry, error)
	UpdateMood(user string, fn func([]domain.MoodEntry) ([]domain.MoodEntry, error)) error
}

// MoodService records and reads mood journal entries.
type MoodService struct {
	Store MoodStore

	// TrendsLimit overrides DefaultTrendsLimit when positive.
	TrendsLimit int
}

// NewMoodService constructs a MoodService with the default trend window.
func NewMoodService(store MoodStore) *MoodService {
	return &MoodService{Store: store, TrendsLimit: DefaultTrendsLimit}
}

// Record appends a journal entry with the score derived from mood.
// Both fields are required; ErrEmptyMood is returned otherwise.
func (s *MoodService) Record(ctx context.Context, user, mood, thoughts string) (*domain.MoodEntry, error) {
	tr := otel.Tracer("services/MoodService")
	_, span := tr.Start(ctx, "Record",
		trace.WithAttributes(attribute.String("user.id", user)),
	)
	defer span.End()

	mood = strings.TrimSpace(mood)
	thoughts = strings.TrimSpace(thoughts)
	if mood == "" || thoughts == "" {
		return nil, ErrEmptyMood
	}

	entry := domain.MoodEntry{
		Timestamp: domain.Timestamp(time.Now()),
		Mood:      mood,
		Thoughts:  thoughts,
		Score:     domain.MoodScore(mood),
	}
	err := s.Store.UpdateMood(user, func(entries []domain.MoodEntry) ([]domain.MoodEntry, error) {
		return append(entries, entry), nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Entries returns the full journal in insertion order, empty when the user
// has not journaled yet.
func (s *MoodService) Entries(ctx context.Context, user string) ([]domain.MoodEntry, error) {
	tr := otel.Tracer("services/MoodService")
	_, span := tr.Start(ctx, "Entries",
		trace.WithAttributes(attribute.String("user.id", user)),
	)
	defer span.End()

	return s.Store.LoadMood(user)
}

// Trends returns the (date, score) series for the most recent entries, oldest
// first. limit <= 0 falls back to the configured window; values above
// MaxTrendsLimit are clamped. The date is the calendar-day part of the entry
// timestamp.
func (s *MoodService) Trends(ctx context.Context, user string, limit int) ([]domain.TrendPoint, error) {
	tr := otel.Tracer("services/MoodService")
	_, span := tr.Start(ctx, "Trends",
		trace.WithAttributes(
			attribute.String("user.id", user),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if limit <= 0 {
		limit = s.TrendsLimit
		if limit <= 0 {
			limit = DefaultTrendsLimit
		}
	}
	if limit > MaxTrendsLimit {
		limit = MaxTrendsLimit
	}

	entries, err := s.Store.LoadMood(user)
	if err != nil {
		return nil, err
	}
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	points := make([]domain.TrendPoint, 0, len(entries))
	for _, e := range entries {
		date, _, _ := strings.Cut(e.Timestamp, " ")
		points = append(points, domain.TrendPoint{Date: date, Score: e.Score})
	}
	return points, nil
}
