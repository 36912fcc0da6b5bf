package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melobot/internal/music/search"
)

func TestQueueOperations(t *testing.T) {
	p := New(nil, "guild-1", nil)

	assert.False(t, p.IsPlaying())
	assert.False(t, p.IsPaused())
	assert.Empty(t, p.Queue())

	p.Enqueue(search.FullTrack{ID: "a", Title: "First"})
	p.Enqueue(search.FullTrack{ID: "b", Title: "Second"})

	queue := p.Queue()
	require.Len(t, queue, 2)
	assert.Equal(t, "First", queue[0].Title)

	// Queue returns a copy; mutating it must not leak into the player.
	queue[0].Title = "mutated"
	assert.Equal(t, "First", p.Queue()[0].Title)

	assert.Equal(t, 2, p.ClearQueue())
	assert.Empty(t, p.Queue())
}

func TestIdleStateErrors(t *testing.T) {
	p := New(nil, "guild-1", nil)

	_, err := p.Current()
	assert.ErrorIs(t, err, ErrNoTrackPlaying)
	assert.ErrorIs(t, p.Stop(false), ErrNoTrackPlaying)
	assert.ErrorIs(t, p.Pause(), ErrNoTrackPlaying)
	assert.ErrorIs(t, p.Resume(), ErrNotPaused)
	assert.Zero(t, p.Elapsed())
}

func TestPlayNextOnEmptyQueue(t *testing.T) {
	p := New(nil, "guild-1", nil)
	assert.ErrorIs(t, p.PlayNext("chan-1"), ErrNoTracksInQueue)
}

func TestEnqueueEmitsAddedOnlyWhilePlaying(t *testing.T) {
	p := New(nil, "guild-1", nil)
	p.Enqueue(search.FullTrack{ID: "a"})

	select {
	case s := <-p.StatusCh:
		t.Fatalf("no status expected while idle, got %s", s)
	default:
	}
}
