package search

import (
	"context"
	"time"
)

// Mode discriminates how a query was resolved. The same text may carry a
// different TTL depending on the mode, so the mode is part of the cache key.
type Mode string

const (
	ModeSearch    Mode = "search"
	ModeDirectURL Mode = "direct-url"
	ModeFallback  Mode = "fallback"
)

// Candidate is the lightweight phase-1 result: enough to display and pick
// from, cheap to obtain. Stream URLs and exact metadata are deliberately
// absent until ResolveFull.
type Candidate struct {
	ID       string
	URL      string
	Title    string
	Uploader string
	Duration time.Duration // zero when the source did not report one
	Source   string        // resolver that produced this candidate
}

// FullTrack is the phase-2 result for exactly one selected candidate.
// It is handed to the player and not retained by the search core.
type FullTrack struct {
	ID        string
	URL       string
	Title     string
	Uploader  string
	Duration  time.Duration
	StreamURL string
	Thumbnail string
}

// Resolver turns a normalized query into lightweight candidates from one
// upstream source. An empty, error-free result means "no matches" and is a
// final answer; only errors trigger fallback to the next resolver.
type Resolver interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Candidate, error)
}

// FullResolver performs the heavy phase-2 extraction for one candidate.
type FullResolver interface {
	Resolve(ctx context.Context, candidate Candidate) (*FullTrack, error)
}
