package storage

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "guilds.json"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGuildSetup(t *testing.T) {
	s := newTestStorage(t)

	_, _, err := s.GuildSetup("g1")
	assert.Error(t, err, "unset guild must report not set up")

	require.NoError(t, s.SetMusicChannel("g1", "chan-1"))
	require.NoError(t, s.SetStableMessage("g1", "msg-1"))

	channelID, messageID, err := s.GuildSetup("g1")
	require.NoError(t, err)
	assert.Equal(t, "chan-1", channelID)
	assert.Equal(t, "msg-1", messageID)
}

// Moving the music channel invalidates the old stable message so a fresh
// one gets created in the new channel.
func TestChannelChangeClearsStableMessage(t *testing.T) {
	s := newTestStorage(t)

	require.NoError(t, s.SetMusicChannel("g1", "chan-1"))
	require.NoError(t, s.SetStableMessage("g1", "msg-1"))
	require.NoError(t, s.SetMusicChannel("g1", "chan-2"))

	channelID, messageID, err := s.GuildSetup("g1")
	require.NoError(t, err)
	assert.Equal(t, "chan-2", channelID)
	assert.Empty(t, messageID)
}

func TestTrackHistoryBounded(t *testing.T) {
	s := newTestStorage(t)

	for i := 0; i < trackHistoryLimit+5; i++ {
		require.NoError(t, s.AppendTrackHistory("g1", TrackRecord{
			Title:    fmt.Sprintf("track %d", i),
			URL:      fmt.Sprintf("https://example.com/%d", i),
			PlayedAt: time.Now(),
		}))
	}

	history, err := s.TrackHistory("g1")
	require.NoError(t, err)
	require.Len(t, history, trackHistoryLimit)
	// Oldest entries were dropped; the newest is last.
	assert.Equal(t, "track 5", history[0].Title)
	assert.Equal(t, fmt.Sprintf("track %d", trackHistoryLimit+4), history[len(history)-1].Title)
}

func TestGuilds(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.SetMusicChannel("g1", "c1"))
	require.NoError(t, s.SetMusicChannel("g2", "c2"))
	assert.ElementsMatch(t, []string{"g1", "g2"}, s.Guilds())
}
