package search

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

// Key computes the fixed-width cache fingerprint for a normalized query and
// resolution mode. Queries that normalize identically always share a key.
func Key(normalized string, mode Mode) string {
	sum := sha256.Sum256([]byte(normalized + "|" + string(mode)))
	return hex.EncodeToString(sum[:])
}

type cacheEntry struct {
	candidates   []Candidate
	createdAt    time.Time
	ttl          time.Duration
	lastAccessed time.Time
}

func (e *cacheEntry) expired(now time.Time) bool {
	return now.After(e.createdAt.Add(e.ttl))
}

// Stats is a point-in-time snapshot of cache counters. Hits and misses are
// monotonic since process start.
type Stats struct {
	Size                 int
	EstimatedMemoryBytes int64
	Hits                 int64
	Misses               int64
	Evictions            int64
}

// HitRate is hits over total lookups, 0 when nothing was looked up yet.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Store is a capacity- and time-bounded cache of resolved candidate lists.
// It is the only shared mutable resource in the search core and must stay
// correct under unbounded concurrent readers and writers. The lock is held
// only for map mutation, never across resolver calls.
type Store struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	maxEntries int

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	now func() time.Time
}

// NewStore creates a Store holding at most maxEntries entries. A
// non-positive capacity disables eviction.
func NewStore(maxEntries int) *Store {
	return &Store{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the cached candidates for key, or ok=false on a miss.
// A logically expired entry is a miss and is deleted lazily. Every call
// increments exactly one of the hit or miss counters.
func (s *Store) Get(key string) ([]Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		s.misses.Add(1)
		return nil, false
	}

	now := s.now()
	if entry.expired(now) {
		delete(s.entries, key)
		s.misses.Add(1)
		return nil, false
	}

	entry.lastAccessed = now
	s.hits.Add(1)
	return entry.candidates, true
}

// Put inserts or replaces the entry for key. When the store is at capacity
// and the key is new, the least-recently-used entry is evicted first.
func (s *Store) Put(key string, candidates []Candidate, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists && s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		s.evictLRU()
	}

	now := s.now()
	s.entries[key] = &cacheEntry{
		candidates:   candidates,
		createdAt:    now,
		ttl:          ttl,
		lastAccessed: now,
	}
}

// evictLRU removes the entry with the oldest lastAccessed. Caller holds the lock.
func (s *Store) evictLRU() {
	var lruKey string
	var lruTime time.Time
	for key, entry := range s.entries {
		if lruKey == "" || entry.lastAccessed.Before(lruTime) {
			lruKey = key
			lruTime = entry.lastAccessed
		}
	}
	if lruKey != "" {
		delete(s.entries, lruKey)
		s.evictions.Add(1)
		log.Debugf("[Cache] Evicted LRU entry %s", lruKey[:12])
	}
}

// SweepExpired removes all logically expired entries and returns how many
// were removed. Safe to call concurrently with Get and Put; scheduling is
// owned by the health monitor, not the store.
func (s *Store) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.entries {
		if entry.expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	if removed > 0 {
		log.Debugf("[Cache] Swept %d expired entries", removed)
	}
	return removed
}

// Clear removes all entries unconditionally. Counters are not reset.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*cacheEntry)
}

// Stats returns a snapshot of the cache state and counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bytes int64
	for key, entry := range s.entries {
		bytes += int64(len(key))
		for _, c := range entry.candidates {
			bytes += int64(len(c.ID) + len(c.URL) + len(c.Title) + len(c.Uploader) + len(c.Source))
		}
	}

	return Stats{
		Size:                 len(s.entries),
		EstimatedMemoryBytes: bytes,
		Hits:                 s.hits.Load(),
		Misses:               s.misses.Load(),
		Evictions:            s.evictions.Load(),
	}
}
