package ytdlp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melobot/internal/music/search"
)

func TestParseFlatOutput(t *testing.T) {
	output := []byte(`{"id":"abc123def45","title":"First Song","uploader":"Channel One","url":"https://www.youtube.com/watch?v=abc123def45","duration":213.0}
{"id":"xyz789ghi01","title":"Second Song","channel":"Channel Two","duration":95.5}

`)

	got, err := parseFlatOutput(output)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "abc123def45", got[0].ID)
	assert.Equal(t, "First Song", got[0].Title)
	assert.Equal(t, "Channel One", got[0].Uploader)
	assert.Equal(t, 213*time.Second, got[0].Duration)
	assert.Equal(t, Name, got[0].Source)

	// uploader falls back to channel, URL falls back to the watch link.
	assert.Equal(t, "Channel Two", got[1].Uploader)
	assert.Equal(t, "https://www.youtube.com/watch?v=xyz789ghi01", got[1].URL)
	assert.Equal(t, 95500*time.Millisecond, got[1].Duration)
}

func TestParseFlatOutputEmpty(t *testing.T) {
	got, err := parseFlatOutput(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseFlatOutputMalformed(t *testing.T) {
	_, err := parseFlatOutput([]byte(`{"id":"ok1234567ab"}
ERROR: something went wrong`))
	assert.ErrorIs(t, err, search.ErrMalformedResponse)
}

func TestParseFlatOutputSkipsEntriesWithoutID(t *testing.T) {
	got, err := parseFlatOutput([]byte(`{"title":"no id here"}
{"id":"abc123def45","title":"kept"}`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Title)
}
