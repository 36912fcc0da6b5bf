package retrylimit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdaptiveLimiterBackoff(t *testing.T) {
	lim := NewAdaptiveLimiter(8, 1, 20, 1, 0.5)
	require.Equal(t, 8.0, lim.CurrentLimit())

	lim.RateLimited()
	assert.Equal(t, 4.0, lim.CurrentLimit())

	lim.RateLimited()
	assert.Equal(t, 2.0, lim.CurrentLimit())

	// Never drops below the floor.
	for i := 0; i < 5; i++ {
		lim.RateLimited()
	}
	assert.Equal(t, 1.0, lim.CurrentLimit())
}

func TestAdaptiveLimiterSuccessHoldsAfterRecentError(t *testing.T) {
	lim := NewAdaptiveLimiter(8, 1, 20, 1, 0.5)
	lim.RateLimited()
	before := lim.CurrentLimit()

	// Right after an error, success must not climb again yet.
	lim.Success()
	assert.Equal(t, before, lim.CurrentLimit())
}

func TestAdaptiveLimiterCeiling(t *testing.T) {
	lim := NewAdaptiveLimiter(19, 1, 20, 5, 0.5)
	lim.Success()
	assert.Equal(t, 20.0, lim.CurrentLimit())
}

func TestWithRetryMaxSucceedsEventually(t *testing.T) {
	calls := 0
	err := WithRetryMax(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryMaxExhausts(t *testing.T) {
	calls := 0
	sentinel := errors.New("still broken")
	err := WithRetryMax(context.Background(), func() error {
		calls++
		return sentinel
	}, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls)
}

func TestWithRetryMaxStopsOnFatal(t *testing.T) {
	calls := 0
	err := WithRetryMax(context.Background(), func() error {
		calls++
		return &FatalError{Err: errors.New("no formats")}
	}, 5)
	require.Error(t, err)
	assert.Equal(t, 1, calls, "fatal errors must not be retried")
}

func TestWithRetryMaxRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := WithRetryMax(ctx, func() error {
		calls++
		return nil
	}, 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}
