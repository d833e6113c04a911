package api

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordingGuardBeginOnce(t *testing.T) {
	g := NewRecordingGuard()

	assert.True(t, g.Begin("RE1"))
	assert.False(t, g.Begin("RE1"))
	assert.False(t, g.Begin("RE1"))
	assert.True(t, g.Begin("RE2"))
}

func TestRecordingGuardConcurrent(t *testing.T) {
	g := NewRecordingGuard()

	var passed int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Begin("RE-contended") {
				atomic.AddInt32(&passed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), passed)
}

func TestCallRegistryRememberAndLookup(t *testing.T) {
	r := newCallRegistry(time.Hour)

	r.Remember("CA1", "+15550001111")
	assert.Equal(t, "+15550001111", r.Lookup("CA1"))
	assert.Equal(t, "", r.Lookup("CA-unknown"))
}

func TestCallRegistryExpiry(t *testing.T) {
	r := newCallRegistry(time.Nanosecond)

	r.Remember("CA1", "+15550001111")
	time.Sleep(time.Millisecond)
	// pruning happens on the next write
	r.Remember("CA2", "+15550002222")

	assert.Equal(t, "", r.Lookup("CA1"))
	assert.Equal(t, "+15550002222", r.Lookup("CA2"))
}
