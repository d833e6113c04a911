package transcription

import "context"

// StubTranscript is the fixed text returned by the stub backend.
const StubTranscript = "This is a test voicemail message for demonstration purposes."

// StubTranscriber is the deterministic offline backend. It ignores the
// audio and never fails.
type StubTranscriber struct{}

var _ Transcriber = StubTranscriber{}

// Name implements Transcriber.
func (StubTranscriber) Name() string {
	return "stub"
}

// Transcribe implements Transcriber.
func (StubTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return StubTranscript, nil
}
