// Package triage holds the domain model for classified support messages:
// the draft shape produced by classification, the closed category/urgency
// sets, schema validation, and cost/latency estimation.
package triage

// Draft is the unvalidated output of classification. Missing keys in the
// provider response become zero-value fields here; the validator is the
// single source of truth for correctness.
type Draft struct {
	Customer  string `json:"customer,omitempty"`
	Email     string `json:"email,omitempty"`
	Category  string `json:"category,omitempty"`
	Urgency   string `json:"urgency,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Rationale string `json:"rationale,omitempty"`
}

// Categories is the closed set of ticket categories.
var Categories = []string{"billing", "bug", "feature", "other"}

// Urgencies is the closed set of urgency levels.
var Urgencies = []string{"low", "medium", "high"}

// ValidCategory reports whether v is a member of the category set.
func ValidCategory(v string) bool {
	for _, c := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// ValidUrgency reports whether v is a member of the urgency set.
func ValidUrgency(v string) bool {
	for _, u := range Urgencies {
		if v == u {
			return true
		}
	}
	return false
}
