package classification

import (
	"context"
	"regexp"
	"strings"

	"github.com/voicetriage/voicetriage/internal/triage"
)

var (
	namePattern  = regexp.MustCompile(`(?i)\b(?:i'm|i am|this is|my name is)\s+([A-Za-z]+)`)
	emailFinder  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	categoryCues = map[string][]string{
		"bug":     {"bug", "crash", "broken", "error", "doesn't work", "not working"},
		"billing": {"bill", "charge", "invoice", "refund", "payment", "subscription"},
		"feature": {"feature", "would be nice", "wish", "could you add", "request"},
	}
	highCues = []string{"urgent", "asap", "immediately", "emergency", "crash", "right away"}
	lowCues  = []string{"no rush", "whenever", "minor", "someday"}
)

// StubClassifier maps keyword heuristics in the input text to a
// deterministic draft. It never fails, so handler and pipeline tests run
// without network access.
type StubClassifier struct {
	// Empty forces an empty draft regardless of input, for exercising
	// the validation failure path.
	Empty bool
}

var _ Classifier = (*StubClassifier)(nil)

// Name implements Classifier.
func (c *StubClassifier) Name() string {
	return "stub"
}

// Classify implements Classifier.
func (c *StubClassifier) Classify(ctx context.Context, text string) (*triage.Draft, error) {
	if c.Empty {
		return &triage.Draft{}, nil
	}

	lower := strings.ToLower(text)

	draft := &triage.Draft{
		Category:  "other",
		Urgency:   "medium",
		Summary:   summarize(text),
		Rationale: "keyword heuristics",
	}

	for _, category := range []string{"bug", "billing", "feature"} {
		if containsAny(lower, categoryCues[category]) {
			draft.Category = category
			break
		}
	}

	if containsAny(lower, highCues) {
		draft.Urgency = "high"
	} else if containsAny(lower, lowCues) {
		draft.Urgency = "low"
	}

	if m := namePattern.FindStringSubmatch(text); m != nil {
		draft.Customer = m[1]
	}
	draft.Email = emailFinder.FindString(text)

	return draft, nil
}

func containsAny(s string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(s, cue) {
			return true
		}
	}
	return false
}

// summarize keeps the first sentence-ish slice of the message.
func summarize(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > 140 {
		return text[:140]
	}
	return text
}
