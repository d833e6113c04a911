package triage

import (
	"time"

	"github.com/voicetriage/voicetriage/internal/provider"
)

// providerRates holds the static per-provider price table. Prices are
// list prices at the time of writing; cost output is a best-effort signal
// for the dashboard, not billing data.
type providerRates struct {
	PerAudioSecond   float64
	PerKInputTokens  float64
	PerKOutputTokens float64
}

var priceTable = map[string]providerRates{
	// whisper-1, $0.006 per minute
	"openai": {PerAudioSecond: 0.0001},
	// claude-3-haiku, $0.25 / $1.25 per million tokens
	"anthropic": {PerKInputTokens: 0.00025, PerKOutputTokens: 0.00125},
}

// Four characters per token is a rough proxy; the vendors do not expose
// exact counts on every call path.
const charsPerToken = 4

// Estimate computes the wall-clock latency of a pipeline run started at
// start and the estimated spend of the provider calls it made. Unknown
// providers contribute zero cost rather than failing.
func Estimate(start time.Time, calls []provider.CallInfo) (latencyMS int64, costUSD float64) {
	latencyMS = time.Since(start).Milliseconds()
	if latencyMS < 0 {
		latencyMS = 0
	}

	for _, call := range calls {
		rates, ok := priceTable[call.Provider]
		if !ok {
			continue
		}
		switch call.Kind {
		case provider.KindTranscription:
			costUSD += call.AudioSeconds * rates.PerAudioSecond
		case provider.KindClassification:
			inTokens := float64(call.InputChars) / charsPerToken
			outTokens := float64(call.OutputChars) / charsPerToken
			costUSD += inTokens/1000*rates.PerKInputTokens + outTokens/1000*rates.PerKOutputTokens
		}
	}

	return latencyMS, costUSD
}
