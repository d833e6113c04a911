package api

import (
	"sync"
	"time"
)

// RecordingGuard prevents duplicate processing when the telephony
// platform redelivers a recording callback. Check-and-mark is a single
// step under the mutex so two concurrent deliveries cannot both pass.
// Ids are never unmarked: an id still in flight and an id already
// completed are both acknowledged without reprocessing.
type RecordingGuard struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewRecordingGuard creates an empty guard.
func NewRecordingGuard() *RecordingGuard {
	return &RecordingGuard{
		seen: make(map[string]struct{}),
	}
}

// Begin marks recordingID as taken. It returns true exactly once per id;
// every later call returns false.
func (g *RecordingGuard) Begin(recordingID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen[recordingID]; ok {
		return false
	}
	g.seen[recordingID] = struct{}{}
	return true
}

// callRegistry remembers which caller started which call, so the
// recording callback can attribute the voicemail when the platform does
// not echo the caller back. Entries expire so the map cannot grow
// unbounded across long uptimes.
type callRegistry struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]callEntry
}

type callEntry struct {
	caller string
	seen   time.Time
}

func newCallRegistry(ttl time.Duration) *callRegistry {
	return &callRegistry{
		ttl: ttl,
		m:   make(map[string]callEntry),
	}
}

// Remember associates callSid with caller and prunes expired entries.
func (r *callRegistry) Remember(callSid, caller string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for sid, e := range r.m {
		if now.Sub(e.seen) > r.ttl {
			delete(r.m, sid)
		}
	}
	r.m[callSid] = callEntry{caller: caller, seen: now}
}

// Lookup returns the caller for callSid, or "".
func (r *callRegistry) Lookup(callSid string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.m[callSid].caller
}
