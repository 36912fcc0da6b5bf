package search

import (
	"context"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Options configures the orchestrator. Zero values fall back to the
// defaults below.
type Options struct {
	MaxResults     int
	MaxQueryLength int
	Preprocess     bool
	FillerWords    []string
	SearchTTL      time.Duration
	DirectURLTTL   time.Duration
	FallbackTTL    time.Duration
	DedupTTL       time.Duration
}

func (o *Options) applyDefaults() {
	if o.MaxResults <= 0 {
		o.MaxResults = 5
	}
	if o.MaxQueryLength <= 0 {
		o.MaxQueryLength = 100
	}
	if o.SearchTTL <= 0 {
		o.SearchTTL = 30 * time.Minute
	}
	if o.DirectURLTTL <= 0 {
		o.DirectURLTTL = time.Hour
	}
	if o.FallbackTTL <= 0 {
		o.FallbackTTL = 15 * time.Minute
	}
	if o.DedupTTL <= 0 {
		o.DedupTTL = 30 * time.Second
	}
}

type dedupEntry struct {
	track   *FullTrack
	expires time.Time
}

// Orchestrator coordinates normalizer, cache, resolver chain and the
// full-metadata resolver behind the two-phase contract: FastSearch returns
// lightweight candidates quickly, ResolveFull pays the heavy extraction
// cost only for the one candidate the user picked.
//
// Construct it once at process start and pass it explicitly; it has no
// package-level state.
type Orchestrator struct {
	cache        *Store
	chain        *Chain
	full         FullResolver
	fallbackName string
	opts         Options

	dedupMu sync.Mutex
	dedup   map[string]dedupEntry
}

// NewOrchestrator wires the search core. fallbackName identifies which
// chain resolver is the legacy fallback so its results get the shorter
// fallback TTL.
func NewOrchestrator(cache *Store, chain *Chain, full FullResolver, fallbackName string, opts Options) *Orchestrator {
	opts.applyDefaults()
	return &Orchestrator{
		cache:        cache,
		chain:        chain,
		full:         full,
		fallbackName: fallbackName,
		opts:         opts,
		dedup:        make(map[string]dedupEntry),
	}
}

// FastSearch is phase 1: raw query in, ranked lightweight candidates out.
// The cache-hit path performs no network operation; the miss path performs
// exactly one chain traversal. A direct video URL short-circuits to a
// single candidate without touching any search upstream.
func (o *Orchestrator) FastSearch(ctx context.Context, rawQuery string) ([]Candidate, error) {
	normalized := Normalize(rawQuery, o.opts.MaxQueryLength)
	if normalized == "" {
		return nil, ErrInvalidQuery
	}

	if IsVideoURL(rawQuery) {
		return o.directURL(rawQuery, normalized)
	}

	searchKey := Key(normalized, ModeSearch)
	if candidates, ok := o.cache.Get(searchKey); ok {
		log.Debugf("[Search] Cache hit for %q", normalized)
		return candidates, nil
	}
	fallbackKey := Key(normalized, ModeFallback)
	if candidates, ok := o.cache.Get(fallbackKey); ok {
		log.Debugf("[Search] Fallback cache hit for %q", normalized)
		return candidates, nil
	}

	searchText := normalized
	if o.opts.Preprocess {
		searchText = StripFillers(normalized, o.opts.FillerWords)
	}

	start := time.Now()
	candidates, winner, err := o.chain.Search(ctx, searchText, o.opts.MaxResults)
	if err != nil {
		return nil, err
	}
	log.Debugf("[Search] Resolved %q via %s in %v", normalized, winner, time.Since(start))

	if len(candidates) > o.opts.MaxResults {
		candidates = candidates[:o.opts.MaxResults]
	}
	if len(candidates) == 0 {
		// "No matches" is a final answer but not worth caching.
		return candidates, nil
	}

	if winner == o.fallbackName {
		o.cache.Put(fallbackKey, candidates, o.opts.FallbackTTL)
	} else {
		o.cache.Put(searchKey, candidates, o.opts.SearchTTL)
	}
	return candidates, nil
}

// directURL turns a pasted video link into a single candidate, cached under
// the direct-url mode so repeated pastes of the same link stay cheap.
func (o *Orchestrator) directURL(rawQuery, normalized string) ([]Candidate, error) {
	key := Key(normalized, ModeDirectURL)
	if candidates, ok := o.cache.Get(key); ok {
		return candidates, nil
	}

	cleaned := CleanVideoURL(rawQuery)
	candidate := Candidate{
		ID:     VideoID(cleaned),
		URL:    cleaned,
		Title:  strings.TrimSpace(rawQuery),
		Source: string(ModeDirectURL),
	}
	candidates := []Candidate{candidate}
	o.cache.Put(key, candidates, o.opts.DirectURLTTL)
	return candidates, nil
}

// ResolveFull is phase 2: resolve exactly one selected candidate into full
// playback metadata. Rapid repeated selection of the same candidate within
// the dedup TTL reuses the previous result instead of re-invoking the
// resolver. The phase-1 cache is bypassed entirely.
func (o *Orchestrator) ResolveFull(ctx context.Context, candidate Candidate) (*FullTrack, error) {
	if track := o.dedupGet(candidate.ID); track != nil {
		log.Debugf("[Search] Dedup hit for candidate %s", candidate.ID)
		return track, nil
	}

	track, err := o.full.Resolve(ctx, candidate)
	if err != nil {
		return nil, &FullResolveError{Candidate: candidate, Err: err}
	}

	o.dedupPut(candidate.ID, track)
	return track, nil
}

// CacheStats exposes phase-1 cache counters for the health monitor.
func (o *Orchestrator) CacheStats() Stats {
	return o.cache.Stats()
}

// SweepCache removes expired phase-1 entries and stale dedup entries.
// Called by the health monitor on its schedule.
func (o *Orchestrator) SweepCache() int {
	o.dedupMu.Lock()
	now := time.Now()
	for id, entry := range o.dedup {
		if now.After(entry.expires) {
			delete(o.dedup, id)
		}
	}
	o.dedupMu.Unlock()

	return o.cache.SweepExpired()
}

func (o *Orchestrator) dedupGet(id string) *FullTrack {
	if id == "" {
		return nil
	}
	o.dedupMu.Lock()
	defer o.dedupMu.Unlock()
	entry, ok := o.dedup[id]
	if !ok || time.Now().After(entry.expires) {
		return nil
	}
	return entry.track
}

func (o *Orchestrator) dedupPut(id string, track *FullTrack) {
	if id == "" {
		return
	}
	o.dedupMu.Lock()
	defer o.dedupMu.Unlock()
	o.dedup[id] = dedupEntry{track: track, expires: time.Now().Add(o.opts.DedupTTL)}
}
