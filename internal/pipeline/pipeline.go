// Package pipeline drives one submission through acquisition,
// transcription, classification, validation, estimation, and the store
// append. Every run terminates in exactly one stored record, provider
// failures included.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voicetriage/voicetriage/internal/audio"
	"github.com/voicetriage/voicetriage/internal/classification"
	"github.com/voicetriage/voicetriage/internal/provider"
	"github.com/voicetriage/voicetriage/internal/store"
	"github.com/voicetriage/voicetriage/internal/transcription"
	"github.com/voicetriage/voicetriage/internal/triage"
	"github.com/voicetriage/voicetriage/pkg/logger"
)

// Submission kinds.
const (
	KindText  = "text"
	KindAudio = "audio"
)

// Submission is one unit of intake work. Immutable once created; the
// front door builds it and the pipeline consumes it exactly once.
type Submission struct {
	Kind         string
	Body         string // text submissions
	RecordingID  string // audio submissions
	AudioURL     string
	Caller       string
	DurationSecs float64 // recording length reported by the platform, if any
}

// Pipeline orchestrates submissions against the configured providers and
// the record store. Many runs may execute concurrently; the store is the
// only point of coordination.
type Pipeline struct {
	transcriber transcription.Transcriber
	classifier  classification.Classifier
	fetcher     *audio.Fetcher
	store       store.Store
	callTimeout time.Duration
	logger      *logger.Logger
}

// New creates a pipeline. callTimeout bounds each individual provider
// call; exceeding it is treated like any other provider failure.
func New(
	transcriber transcription.Transcriber,
	classifier classification.Classifier,
	fetcher *audio.Fetcher,
	recordStore store.Store,
	callTimeout time.Duration,
	logger *logger.Logger,
) *Pipeline {
	return &Pipeline{
		transcriber: transcriber,
		classifier:  classifier,
		fetcher:     fetcher,
		store:       recordStore,
		callTimeout: callTimeout,
		logger:      logger.Named("pipeline"),
	}
}

// Run processes one submission to its terminal state. Provider failures
// are captured into the record, never propagated; the only error returned
// is a store append fault, which callers surface as an internal error.
func (p *Pipeline) Run(ctx context.Context, sub Submission) (*store.Record, error) {
	start := time.Now()
	log := p.logger.With(logger.String("run_id", uuid.New().String()))

	var (
		calls        []provider.CallInfo
		captured     []string
		transcript   string
		draft        *triage.Draft
		skipClassify bool
	)

	switch sub.Kind {
	case KindText:
		transcript = sub.Body
	case KindAudio:
		data, err := p.acquire(ctx, sub.AudioURL)
		if err != nil {
			log.Warn("Audio acquisition failed, storing failed run", logger.Error(err))
			captured = append(captured, err.Error())
			skipClassify = true
			break
		}

		calls = append(calls, provider.CallInfo{
			Provider:     p.transcriber.Name(),
			Kind:         provider.KindTranscription,
			AudioSeconds: sub.DurationSecs,
		})
		transcript, err = p.transcribe(ctx, data)
		if err != nil {
			log.Warn("Transcription failed, storing failed run", logger.Error(err))
			captured = append(captured, err.Error())
			skipClassify = true
		}
	default:
		return nil, fmt.Errorf("unknown submission kind: %s", sub.Kind)
	}

	if !skipClassify {
		var err error
		draft, err = p.classify(ctx, transcript)
		calls = append(calls, provider.CallInfo{
			Provider:    p.classifier.Name(),
			Kind:        provider.KindClassification,
			InputChars:  len(transcript),
			OutputChars: draftChars(draft),
		})
		if err != nil {
			log.Warn("Classification failed, storing failed run", logger.Error(err))
			captured = append(captured, err.Error())
			draft = nil
		}
	}

	valid, errs := triage.Validate(draft)
	errs = append(errs, captured...)
	if errs == nil {
		errs = []string{}
	}

	latencyMS, costUSD := triage.Estimate(start, calls)

	rec := &store.Record{
		Source:     store.SourceText,
		Transcript: transcript,
		Data:       draft,
		Valid:      valid,
		Errors:     errs,
		LatencyMS:  latencyMS,
		EstCostUSD: costUSD,
	}
	if sub.Kind == KindAudio {
		rec.Source = store.SourceVoicemail
		rec.OriginRef = sub.Caller
		rec.RecordingURL = sub.AudioURL
	}

	id, err := p.store.Append(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to append record: %w", err)
	}

	log.Info("Pipeline run complete",
		logger.Int64("record_id", id),
		logger.String("source", rec.Source),
		logger.Bool("valid", rec.Valid),
		logger.Int64("latency_ms", rec.LatencyMS),
		logger.Float64("est_cost_usd", rec.EstCostUSD),
	)
	return rec, nil
}

// acquire downloads the recording. The fetcher retries internally, so a
// failure here is final for the run.
func (p *Pipeline) acquire(ctx context.Context, url string) ([]byte, error) {
	fctx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	data, err := p.fetcher.Fetch(fctx, url)
	if err != nil {
		return nil, &provider.Error{Provider: "telephony", Op: "fetch-audio", Err: err}
	}
	return data, nil
}

// transcribe calls the transcriber with one bounded retry on transient
// provider failures.
func (p *Pipeline) transcribe(ctx context.Context, data []byte) (string, error) {
	text, err := p.transcribeOnce(ctx, data)
	if err != nil && provider.IsRetryable(err) {
		p.logger.Warn("Retrying transcription", logger.Error(err))
		text, err = p.transcribeOnce(ctx, data)
	}
	return text, err
}

func (p *Pipeline) transcribeOnce(ctx context.Context, data []byte) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	return p.transcriber.Transcribe(cctx, data)
}

// classify calls the classifier with one bounded retry on transient
// provider failures. Parse failures are never retried; a shape mismatch
// will not fix itself.
func (p *Pipeline) classify(ctx context.Context, text string) (*triage.Draft, error) {
	draft, err := p.classifyOnce(ctx, text)
	if err != nil && provider.IsRetryable(err) {
		p.logger.Warn("Retrying classification", logger.Error(err))
		draft, err = p.classifyOnce(ctx, text)
	}
	return draft, err
}

func (p *Pipeline) classifyOnce(ctx context.Context, text string) (*triage.Draft, error) {
	cctx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()
	return p.classifier.Classify(cctx, text)
}

// draftChars approximates the classifier output size for cost accounting.
func draftChars(d *triage.Draft) int {
	if d == nil {
		return 0
	}
	return len(d.Customer) + len(d.Email) + len(d.Category) + len(d.Urgency) + len(d.Summary) + len(d.Rationale)
}
