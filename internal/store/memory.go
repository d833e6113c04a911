package store

import (
	"sync"
	"time"
)

// MemoryStore is the default in-memory record store. Appends are exclusive
// under the mutex; reads copy out a snapshot so a half-written record is
// never observed. Contents are lost on restart, which is accepted.
type MemoryStore struct {
	mu             sync.RWMutex
	records        []Record
	nextID         int64
	valids         int
	totalLatencyMS int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// Append assigns the next id, stamps the insertion time, and inserts a
// copy of rec. The id and timestamp are written back to rec for the caller.
func (s *MemoryStore) Append(rec *Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.nextID
	rec.CreatedAt = time.Now().UTC()
	s.nextID++

	s.records = append(s.records, *rec)
	if rec.Valid {
		s.valids++
	}
	s.totalLatencyMS += rec.LatencyMS

	return rec.ID, nil
}

// Newest returns a snapshot of all records in descending id order.
func (s *MemoryStore) Newest() ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		out = append(out, &rec)
	}
	return out, nil
}

// Stats returns the running aggregates.
func (s *MemoryStore) Stats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return computeStats(len(s.records), s.valids, s.totalLatencyMS), nil
}
