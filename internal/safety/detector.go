// Package safety implements crisis detection over incoming messages and owns
// the fixed safety texts (crisis resources block, degraded-service fallback).
//
// Detection is deliberately blunt: a case-insensitive substring scan over a
// fixed phrase list, with no tokenization or word-boundary checks. That
// over-triggers on innocuous substrings, which is the intended bias: a
// missed crisis is far worse than a spurious resources block.
package safety

import (
	"strings"

	"github.com/mindhaven/go-support-backend/internal/domain"
)

// defaultPhrases is the policy list scanned by DefaultDetector.
var defaultPhrases = []string{
	"suicide",
	"kill myself",
	"end it all",
	"not worth living",
	"hurt myself",
}

// Detector scans messages against a fixed, pre-folded phrase list.
// The zero value is unusable; construct with NewDetector or use
// DefaultDetector.
type Detector struct {
	phrases []string
}

// DefaultDetector scans the standard crisis phrase policy list.
var DefaultDetector = NewDetector(defaultPhrases)

// NewDetector builds a Detector from the given phrases. Phrases are folded
// once at construction; blank entries are dropped.
func NewDetector(phrases []string) *Detector {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, domain.Fold(p))
		}
	}
	return &Detector{phrases: out}
}

// Detect reports whether message contains any crisis phrase as a substring,
// ignoring case. Pure and stateless.
func (d *Detector) Detect(message string) bool {
	folded := domain.Fold(message)
	for _, p := range d.phrases {
		if strings.Contains(folded, p) {
			return true
		}
	}
	return false
}

// CrisisResources is prepended to the assistant reply whenever the incoming
// message was flagged. The wording is fixed policy text.
const CrisisResources = `🆘 **I'm concerned about you and want to help immediately.**

**CRISIS RESOURCES:**
• **Call 988** - National Suicide Prevention Lifeline (US)
• **Text HOME to 741741** - Crisis Text Line
• **Call 911** if in immediate danger

You are not alone, and your life has value. Please reach out to one of these resources right away.

`

// FallbackReply is returned in place of a model reply when the external
// model call fails or times out. It must always carry the 988 line.
const FallbackReply = "I'm experiencing technical difficulties right now. " +
	"If you're in crisis, please call 988 (Suicide Prevention Lifeline) or 911 for immediate help. " +
	"I'll be back to support you soon."
