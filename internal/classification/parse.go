package classification

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/voicetriage/voicetriage/internal/triage"
)

// parseDraft extracts the draft JSON object from a model reply. Models
// sometimes wrap the object in prose, so the first balanced candidate is
// cut out before parsing. Missing keys are tolerated; an unlocatable or
// invalid object is an error for the caller to wrap.
func parseDraft(raw string) (*triage.Draft, error) {
	obj := extractJSONObject(raw)
	if obj == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}
	if !gjson.Valid(obj) {
		return nil, fmt.Errorf("malformed JSON object in response")
	}

	res := gjson.Parse(obj)
	return &triage.Draft{
		Customer:  res.Get("customer").String(),
		Email:     res.Get("email").String(),
		Category:  res.Get("category").String(),
		Urgency:   res.Get("urgency").String(),
		Summary:   res.Get("summary").String(),
		Rationale: res.Get("rationale").String(),
	}, nil
}

// extractJSONObject returns the outermost {...} span of s, or "".
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}

// truncate caps s for inclusion in error payloads.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
