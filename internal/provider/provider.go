// Package provider defines the shared error taxonomy and per-call accounting
// info for the external transcription and classification backends.
package provider

import (
	"errors"
	"fmt"
)

// Call kinds used for cost accounting.
const (
	KindTranscription  = "transcription"
	KindClassification = "classification"
)

// Error represents a transport, auth, or timeout failure talking to a
// provider. Errors of this kind are transient and eligible for one retry.
type Error struct {
	Provider string // e.g. "openai", "anthropic"
	Op       string // e.g. "transcribe", "classify"
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ParseError represents a provider response that arrived but could not be
// interpreted as the expected shape. Retrying will not fix it.
type ParseError struct {
	Provider string
	Raw      string // offending response payload, truncated by the caller
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %s: unparseable response: %v", e.Provider, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}

// CallInfo records one provider call for cost estimation.
type CallInfo struct {
	Provider     string  // price table key
	Kind         string  // KindTranscription or KindClassification
	AudioSeconds float64 // transcription only
	InputChars   int     // classification only
	OutputChars  int     // classification only
}
