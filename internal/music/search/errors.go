package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidQuery is returned for input that normalizes to the empty
	// string. It never reaches the cache or any resolver.
	ErrInvalidQuery = errors.New("query is empty or whitespace only")

	// ErrQuotaExceeded is reported by resolvers whose upstream signalled
	// quota exhaustion. The chain skips such a resolver for the configured
	// cool-down window.
	ErrQuotaExceeded = errors.New("resolver quota exceeded")

	// ErrMalformedResponse is reported when an upstream answered with a
	// payload the resolver could not decode.
	ErrMalformedResponse = errors.New("malformed resolver response")
)

// FailureKind classifies a single resolver failure for logging and
// cool-down decisions.
type FailureKind string

const (
	FailTimeout   FailureKind = "timeout"
	FailQuota     FailureKind = "quota"
	FailMalformed FailureKind = "malformed"
	FailNetwork   FailureKind = "network"
)

// KindOf maps a resolver error to its failure kind.
func KindOf(err error) FailureKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return FailTimeout
	case errors.Is(err, ErrQuotaExceeded):
		return FailQuota
	case errors.Is(err, ErrMalformedResponse):
		return FailMalformed
	default:
		return FailNetwork
	}
}

// ResolveError is one resolver's typed failure within a chain traversal.
type ResolveError struct {
	Resolver string
	Kind     FailureKind
	Err      error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Resolver, e.Kind, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// ChainError is the aggregate failure after every configured resolver has
// been attempted and failed. It names each attempt and its failure kind.
type ChainError struct {
	Attempts []*ResolveError
}

func (e *ChainError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s (%s)", a.Resolver, a.Kind)
	}
	return "all resolvers failed: " + strings.Join(parts, ", ")
}

// Attempted reports whether the named resolver was tried in this traversal.
func (e *ChainError) Attempted(name string) bool {
	for _, a := range e.Attempts {
		if a.Resolver == name {
			return true
		}
	}
	return false
}

// FullResolveError is a phase-2 failure. It is surfaced separately from
// search failures: the user already saw the candidate, so the message must
// say that this item failed, not that search is broken.
type FullResolveError struct {
	Candidate Candidate
	Err       error
}

func (e *FullResolveError) Error() string {
	return fmt.Sprintf("could not resolve %q (%s): %v", e.Candidate.Title, e.Candidate.ID, e.Err)
}

func (e *FullResolveError) Unwrap() error { return e.Err }
