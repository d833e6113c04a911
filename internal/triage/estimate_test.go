package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/voicetriage/voicetriage/internal/provider"
)

func TestEstimateLatency(t *testing.T) {
	start := time.Now().Add(-250 * time.Millisecond)
	latency, _ := Estimate(start, nil)
	assert.GreaterOrEqual(t, latency, int64(250))
	assert.Less(t, latency, int64(5000))
}

func TestEstimateLatencyNeverNegative(t *testing.T) {
	latency, _ := Estimate(time.Now().Add(time.Hour), nil)
	assert.Equal(t, int64(0), latency)
}

func TestEstimateTranscriptionCost(t *testing.T) {
	_, cost := Estimate(time.Now(), []provider.CallInfo{
		{Provider: "openai", Kind: provider.KindTranscription, AudioSeconds: 60},
	})
	// whisper-1 at $0.006/min
	assert.InDelta(t, 0.006, cost, 1e-9)
}

func TestEstimateClassificationCost(t *testing.T) {
	_, cost := Estimate(time.Now(), []provider.CallInfo{
		{Provider: "anthropic", Kind: provider.KindClassification, InputChars: 4000, OutputChars: 400},
	})
	// 1000 input tokens + 100 output tokens at haiku rates
	assert.InDelta(t, 0.00025+0.000125, cost, 1e-9)
}

func TestEstimateSumsCalls(t *testing.T) {
	calls := []provider.CallInfo{
		{Provider: "openai", Kind: provider.KindTranscription, AudioSeconds: 30},
		{Provider: "anthropic", Kind: provider.KindClassification, InputChars: 4000},
	}
	_, cost := Estimate(time.Now(), calls)
	assert.InDelta(t, 0.003+0.00025, cost, 1e-9)
}

func TestEstimateUnknownProviderIsFree(t *testing.T) {
	_, cost := Estimate(time.Now(), []provider.CallInfo{
		{Provider: "stub", Kind: provider.KindTranscription, AudioSeconds: 600},
		{Provider: "somebody-else", Kind: provider.KindClassification, InputChars: 1 << 20},
	})
	assert.Zero(t, cost)
}
