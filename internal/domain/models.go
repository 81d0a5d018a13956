// Package domain defines the persisted data model for user accounts, chat
// transcripts, and mood-journal entries. Transcripts and journals are stored
// as whole JSON documents per user; the types here are their wire and file
// representation.
package domain

import (
	"time"

	"golang.org/x/text/cases"
)

// Sender identifies the author of a chat turn. The set is closed: a turn is
// written either by the end user or by the assistant. Mapping onto the
// external model's role vocabulary ("user"/"model") happens in the prompt
// package, never here.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Valid reports whether s is one of the two known senders.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// TimestampLayout is the human-readable minute-precision format used for
// transcript and journal timestamps, e.g. "2025-03-14 09:26".
const TimestampLayout = "2006-01-02 15:04"

// Timestamp renders t in the persisted transcript/journal format.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ChatTurn is a single utterance in a user's transcript.
//
// Fields:
//   - Sender: "user" or "assistant".
//   - Text: full message text.
//   - Timestamp: minute-precision wall clock, see TimestampLayout.
type ChatTurn struct {
	Sender    Sender `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// MoodEntry is one mood-journal record. Entries are append-only; Score is
// derived from Mood at write time and persisted alongside it for trend
// charting.
type MoodEntry struct {
	Timestamp string `json:"timestamp"`
	Mood      string `json:"mood"`
	Thoughts  string `json:"thoughts"`
	Score     int    `json:"mood_score"`
}

// TrendPoint is one sample on the mood-trend chart: the date portion of an
// entry's timestamp and its score.
type TrendPoint struct {
	Date  string `json:"date"`
	Score int    `json:"score"`
}

// UserRecord is one row of the user registry. The plaintext password is
// never stored; Hash is a bcrypt digest.
type UserRecord struct {
	Hash      string `json:"password_hash"`
	CreatedAt string `json:"created_at"`
}

// foldCaser performs Unicode case folding, giving the case-insensitive
// comparisons the mood table and crisis detector are contracted to provide.
var foldCaser = cases.Fold()

// moodScores maps folded mood labels to the five-point scale.
var moodScores = map[string]int{
	"terrible": 1,
	"bad":      2,
	"okay":     3,
	"good":     4,
	"great":    5,
}

// NeutralScore is the midpoint assigned to unrecognized mood labels.
const NeutralScore = 3

// MoodScore converts a mood label to its numeric score. Matching is
// case-insensitive; unknown labels map to NeutralScore.
func MoodScore(mood string) int {
	if s, ok := moodScores[foldCaser.String(mood)]; ok {
		return s
	}
	return NeutralScore
}

// Fold lowercases s via Unicode case folding. Shared with the safety
// package so detection and scoring agree on what "case-insensitive" means.
func Fold(s string) string {
	return foldCaser.String(s)
}
