// Package store holds completed triage records. Records are append-only
// and immutable once inserted; corrections are new records.
package store

import (
	"math"
	"time"

	"github.com/voicetriage/voicetriage/internal/triage"
)

// Record sources.
const (
	SourceText      = "text"
	SourceVoicemail = "voicemail"
)

// Record is the persisted outcome of one pipeline run.
type Record struct {
	ID           int64         `json:"id"`
	CreatedAt    time.Time     `json:"created_at"`
	Source       string        `json:"source"`
	OriginRef    string        `json:"origin_ref,omitempty"`
	RecordingURL string        `json:"recording_url,omitempty"`
	Transcript   string        `json:"transcript"`
	Data         *triage.Draft `json:"data,omitempty"`
	Valid        bool          `json:"valid"`
	Errors       []string      `json:"errors"`
	LatencyMS    int64         `json:"latency_ms"`
	EstCostUSD   float64       `json:"est_cost_usd"`
}

// Stats are the running aggregates derived from the store.
type Stats struct {
	Runs           int   `json:"runs"`
	Valids         int   `json:"valids"`
	SuccessRatePct int   `json:"success_rate_pct"`
	AvgLatencyMS   int64 `json:"avg_latency_ms"`
}

// Store is the record store contract. Append assigns the next monotonic id
// and makes the record immediately visible to readers; Newest returns a
// snapshot in descending id order.
type Store interface {
	Append(rec *Record) (int64, error)
	Newest() ([]*Record, error)
	Stats() (Stats, error)
}

// computeStats derives the aggregate view, guarding the empty case so there
// is never a divide by zero.
func computeStats(runs, valids int, totalLatencyMS int64) Stats {
	s := Stats{Runs: runs, Valids: valids}
	if runs == 0 {
		return s
	}
	s.SuccessRatePct = int(math.Round(100 * float64(valids) / float64(runs)))
	s.AvgLatencyMS = int64(math.Round(float64(totalLatencyMS) / float64(runs)))
	return s
}
