// Package transcription converts voicemail audio into text.
package transcription

import "context"

// Transcriber is the capability interface for speech-to-text backends.
// The pipeline depends only on this contract, never on a concrete vendor.
type Transcriber interface {
	// Name identifies the backend for logging and cost accounting.
	Name() string

	// Transcribe converts the recorded audio into text.
	Transcribe(ctx context.Context, audio []byte) (string, error)
}
