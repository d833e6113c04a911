package transcription

import (
	"bytes"
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/voicetriage/voicetriage/internal/provider"
	"github.com/voicetriage/voicetriage/pkg/logger"
)

// OpenAITranscriber is the live backend, calling the OpenAI audio
// transcriptions endpoint through the official SDK.
type OpenAITranscriber struct {
	client openai.Client
	model  openai.AudioModel
	logger *logger.Logger
}

var _ Transcriber = (*OpenAITranscriber)(nil)

// NewOpenAITranscriber creates a transcriber backed by the OpenAI API.
func NewOpenAITranscriber(apiKey, model string, logger *logger.Logger) *OpenAITranscriber {
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}
	return &OpenAITranscriber{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.AudioModel(model),
		logger: logger.Named("openai-transcriber"),
	}
}

// Name implements Transcriber.
func (t *OpenAITranscriber) Name() string {
	return "openai"
}

// Transcribe sends the audio for transcription and returns the text.
// Any SDK failure (network, auth, unsupported format) surfaces as a
// *provider.Error.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	t.logger.Debug("Transcribing recording",
		logger.String("model", string(t.model)),
		logger.Int("audio_bytes", len(audio)),
	)

	resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audio), "recording.mp3", "audio/mpeg"),
		Model: t.model,
	})
	if err != nil {
		return "", &provider.Error{Provider: t.Name(), Op: "transcribe", Err: err}
	}

	t.logger.Debug("Transcription complete", logger.Int("chars", len(resp.Text)))
	return resp.Text, nil
}
