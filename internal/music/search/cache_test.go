package search

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, Key("daft punk", ModeSearch), Key("daft punk", ModeSearch))
	})

	t.Run("mode separates keys", func(t *testing.T) {
		assert.NotEqual(t, Key("daft punk", ModeSearch), Key("daft punk", ModeFallback))
		assert.NotEqual(t, Key("daft punk", ModeSearch), Key("daft punk", ModeDirectURL))
	})

	t.Run("fixed width", func(t *testing.T) {
		assert.Len(t, Key("x", ModeSearch), 64)
		assert.Len(t, Key("a much longer query with many words in it", ModeSearch), 64)
	})
}

func testCandidates(n int) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		out[i] = Candidate{ID: fmt.Sprintf("vid%04d", i), Title: fmt.Sprintf("track %d", i)}
	}
	return out
}

func TestStoreGetPut(t *testing.T) {
	s := NewStore(10)

	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.Put("k1", testCandidates(3), time.Minute)
	got, ok := s.Get("k1")
	require.True(t, ok)
	assert.Len(t, got, 3)

	stats := s.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestStoreExpiry(t *testing.T) {
	s := NewStore(10)
	current := time.Now()
	s.now = func() time.Time { return current }

	s.Put("k1", testCandidates(1), time.Minute)

	_, ok := s.Get("k1")
	assert.True(t, ok)

	// One second past the TTL the entry is a miss and gets deleted.
	current = current.Add(time.Minute + time.Second)
	_, ok = s.Get("k1")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Stats().Size)

	// And stays a miss afterwards.
	_, ok = s.Get("k1")
	assert.False(t, ok)
}

func TestStoreLRUEviction(t *testing.T) {
	s := NewStore(3)
	current := time.Now()
	s.now = func() time.Time { return current }

	s.Put("a", testCandidates(1), time.Hour)
	current = current.Add(time.Second)
	s.Put("b", testCandidates(1), time.Hour)
	current = current.Add(time.Second)
	s.Put("c", testCandidates(1), time.Hour)

	// Touch "a" so "b" becomes the least recently used.
	current = current.Add(time.Second)
	_, ok := s.Get("a")
	require.True(t, ok)

	current = current.Add(time.Second)
	s.Put("d", testCandidates(1), time.Hour)

	_, ok = s.Get("b")
	assert.False(t, ok, "LRU entry should have been evicted")
	for _, key := range []string{"a", "c", "d"} {
		_, ok := s.Get(key)
		assert.True(t, ok, "entry %s should survive", key)
	}
	assert.Equal(t, int64(1), s.Stats().Evictions)
}

func TestStoreReplaceDoesNotEvict(t *testing.T) {
	s := NewStore(2)
	s.Put("a", testCandidates(1), time.Hour)
	s.Put("b", testCandidates(1), time.Hour)

	// Overwriting an existing key at capacity must not evict anything.
	s.Put("a", testCandidates(2), time.Hour)

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Len(t, got, 2)
	_, ok = s.Get("b")
	assert.True(t, ok)
	assert.Equal(t, int64(0), s.Stats().Evictions)
}

func TestStoreSweepExpired(t *testing.T) {
	s := NewStore(10)
	current := time.Now()
	s.now = func() time.Time { return current }

	s.Put("short", testCandidates(1), time.Minute)
	s.Put("long", testCandidates(1), time.Hour)

	current = current.Add(5 * time.Minute)
	removed := s.SweepExpired()
	assert.Equal(t, 1, removed)

	_, ok := s.Get("long")
	assert.True(t, ok)
	assert.Equal(t, 1, s.Stats().Size)
}

func TestStoreClear(t *testing.T) {
	s := NewStore(10)
	s.Put("a", testCandidates(1), time.Hour)
	s.Get("a")
	s.Clear()

	assert.Equal(t, 0, s.Stats().Size)
	// Counters survive a clear.
	assert.Equal(t, int64(1), s.Stats().Hits)
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore(50)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := Key(fmt.Sprintf("query %d", i%100), ModeSearch)
				if i%3 == 0 {
					s.Put(key, testCandidates(2), time.Minute)
				} else {
					s.Get(key)
				}
			}
		}(g)
	}
	wg.Wait()

	// 67 of every 200 iterations are puts, the other 133 are lookups, and
	// every lookup counts as exactly one hit or miss.
	stats := s.Stats()
	assert.Equal(t, int64(8*133), stats.Hits+stats.Misses)
	assert.LessOrEqual(t, stats.Size, 50)
}
