package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResolver struct {
	name    string
	results []Candidate
	err     error
	calls   int
	delay   time.Duration
}

func (m *mockResolver) Name() string { return m.name }

func (m *mockResolver) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	m.calls++
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	return m.results, m.err
}

func newTestChain(resolvers ...Resolver) *Chain {
	return NewChain(resolvers, time.Second, 10*time.Minute)
}

func TestChainFirstSuccessWins(t *testing.T) {
	first := &mockResolver{name: "first", results: []Candidate{{ID: "a", Title: "from-first"}}}
	second := &mockResolver{name: "second", results: []Candidate{{ID: "b", Title: "from-second"}}}

	got, winner, err := newTestChain(first, second).Search(context.Background(), "test", 5)
	require.NoError(t, err)
	assert.Equal(t, "first", winner)
	assert.Equal(t, "from-first", got[0].Title)
	assert.Equal(t, 0, second.calls, "later resolvers must not be probed")
}

func TestChainFallsThroughOnError(t *testing.T) {
	failing := &mockResolver{name: "failing", err: fmt.Errorf("api down")}
	backup := &mockResolver{name: "backup", results: []Candidate{{ID: "b"}}}

	got, winner, err := newTestChain(failing, backup).Search(context.Background(), "test", 5)
	require.NoError(t, err)
	assert.Equal(t, "backup", winner)
	assert.Len(t, got, 1)
}

// Zero candidates with no error is a final answer, not a trigger for the
// next resolver.
func TestChainEmptySuccessIsFinal(t *testing.T) {
	empty := &mockResolver{name: "empty"}
	backup := &mockResolver{name: "backup", results: []Candidate{{ID: "b"}}}

	got, winner, err := newTestChain(empty, backup).Search(context.Background(), "obscure query", 5)
	require.NoError(t, err)
	assert.Equal(t, "empty", winner)
	assert.Empty(t, got)
	assert.Equal(t, 0, backup.calls)
}

func TestChainExhaustion(t *testing.T) {
	r1 := &mockResolver{name: "r1", err: fmt.Errorf("boom")}
	r2 := &mockResolver{name: "r2", err: fmt.Errorf("%w: bad payload", ErrMalformedResponse)}

	_, _, err := newTestChain(r1, r2).Search(context.Background(), "test", 5)
	require.Error(t, err)

	var chainErr *ChainError
	require.ErrorAs(t, err, &chainErr)
	require.Len(t, chainErr.Attempts, 2)
	assert.True(t, chainErr.Attempted("r1"))
	assert.True(t, chainErr.Attempted("r2"))
	assert.False(t, chainErr.Attempted("r3"))
	assert.Equal(t, FailNetwork, chainErr.Attempts[0].Kind)
	assert.Equal(t, FailMalformed, chainErr.Attempts[1].Kind)
}

func TestChainQuotaCooldown(t *testing.T) {
	quota := &mockResolver{name: "quota", err: fmt.Errorf("%w: daily limit", ErrQuotaExceeded)}
	backup := &mockResolver{name: "backup", results: []Candidate{{ID: "b"}}}

	chain := newTestChain(quota, backup)
	current := time.Now()
	chain.now = func() time.Time { return current }

	_, winner, err := chain.Search(context.Background(), "one", 5)
	require.NoError(t, err)
	assert.Equal(t, "backup", winner)
	assert.Equal(t, 1, quota.calls)

	// Within the cool-down the quota resolver is skipped without a call.
	current = current.Add(5 * time.Minute)
	_, _, err = chain.Search(context.Background(), "two", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, quota.calls)

	// After the cool-down it is probed again.
	current = current.Add(6 * time.Minute)
	_, _, err = chain.Search(context.Background(), "three", 5)
	require.NoError(t, err)
	assert.Equal(t, 2, quota.calls)
}

func TestChainTimeoutClassified(t *testing.T) {
	slow := &mockResolver{name: "slow", delay: time.Hour}
	chain := NewChain([]Resolver{slow}, 20*time.Millisecond, 0)

	_, _, err := chain.Search(context.Background(), "test", 5)
	var chainErr *ChainError
	require.ErrorAs(t, err, &chainErr)
	require.Len(t, chainErr.Attempts, 1)
	assert.Equal(t, FailTimeout, chainErr.Attempts[0].Kind)
}

// A timeout in one resolver must not consume the parent budget for the rest
// of the chain.
func TestChainPerResolverTimeout(t *testing.T) {
	slow := &mockResolver{name: "slow", delay: time.Hour}
	backup := &mockResolver{name: "backup", results: []Candidate{{ID: "b"}}}

	chain := NewChain([]Resolver{slow, backup}, 20*time.Millisecond, 0)
	got, winner, err := chain.Search(context.Background(), "test", 5)
	require.NoError(t, err)
	assert.Equal(t, "backup", winner)
	assert.Len(t, got, 1)
}

func TestChainParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	slow := &mockResolver{name: "slow", delay: time.Hour}
	backup := &mockResolver{name: "backup", results: []Candidate{{ID: "b"}}}

	_, _, err := newTestChain(slow, backup).Search(ctx, "test", 5)
	require.Error(t, err)
	assert.Equal(t, 0, backup.calls, "cancelled request must not keep walking the chain")
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want FailureKind
	}{
		{context.DeadlineExceeded, FailTimeout},
		{fmt.Errorf("wrap: %w", context.DeadlineExceeded), FailTimeout},
		{ErrQuotaExceeded, FailQuota},
		{fmt.Errorf("%w: daily", ErrQuotaExceeded), FailQuota},
		{ErrMalformedResponse, FailMalformed},
		{errors.New("connection refused"), FailNetwork},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, KindOf(tc.err), "error: %v", tc.err)
	}
}
