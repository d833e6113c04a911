// Package classification turns a transcript into a structured triage
// draft by way of an LLM backend or a deterministic stub.
package classification

import (
	"context"

	"github.com/voicetriage/voicetriage/internal/triage"
)

// Classifier is the capability interface for classification backends.
// The pipeline depends only on this contract, never on a concrete vendor.
type Classifier interface {
	// Name identifies the backend for logging and cost accounting.
	Name() string

	// Classify extracts a draft record from the message text. Missing
	// fields in the model output become zero-value draft fields; the
	// schema validator decides correctness.
	Classify(ctx context.Context, text string) (*triage.Draft, error)
}
