package safety

import (
	"strings"
	"testing"
)

func TestDetect_PolicyPhrases(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"I want to kill myself", true},
		{"SUICIDE is scary", true},
		{"i might end it all tonight", true},
		{"life is not worth living", true},
		{"i could hurt myself", true},
		{"I feel okay today", false},
		{"had a rough week but managing", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := DefaultDetector.Detect(tc.msg); got != tc.want {
			t.Errorf("Detect(%q) = %v, want %v", tc.msg, got, tc.want)
		}
	}
}

func TestDetect_CaseInsensitive(t *testing.T) {
	if !DefaultDetector.Detect("KILL MYSELF") || !DefaultDetector.Detect("Kill Myself") {
		t.Fatalf("detection must ignore case")
	}
}

// Substring matching has no word boundaries; this over-trigger is the
// contracted behavior, so pin it.
func TestDetect_SubstringFalsePositivePinned(t *testing.T) {
	if !DefaultDetector.Detect("self-defense classes hurt myself less than expected") {
		t.Fatalf("substring match is contractual; phrase inside larger text must flag")
	}
}

func TestNewDetector_DropsBlankPhrases(t *testing.T) {
	d := NewDetector([]string{" ", "", "danger word"})
	if d.Detect("nothing here") {
		t.Fatalf("blank phrases must not match everything")
	}
	if !d.Detect("a DANGER WORD appeared") {
		t.Fatalf("custom phrase should match")
	}
}

func TestFixedTexts(t *testing.T) {
	if !strings.Contains(CrisisResources, "988") || !strings.Contains(CrisisResources, "741741") {
		t.Fatalf("crisis resources must list hotline numbers")
	}
	if !strings.Contains(FallbackReply, "988") {
		t.Fatalf("fallback reply must mention 988")
	}
}
