// Package stream turns a resolved track's stream URL into PCM and pipes it
// to a Discord voice connection as opus frames.
package stream

import (
	"fmt"
	"io"
	"os/exec"

	"melobot/internal/music/search"
)

const (
	channels   = 2
	sampleRate = 48000
	frameSize  = 960 // 20ms at 48kHz
)

// TrackStream is an open PCM stream for one track.
type TrackStream struct {
	io.ReadCloser
	track *search.FullTrack
}

func (s *TrackStream) Track() *search.FullTrack {
	return s.track
}

// Open starts an ffmpeg process decoding the track's stream URL to s16le
// PCM. The returned cleanup kills the process; callers must always invoke
// it.
func Open(track *search.FullTrack, seekSec float64) (*TrackStream, func(), error) {
	if track.StreamURL == "" {
		return nil, nil, fmt.Errorf("track %q has no stream URL", track.Title)
	}

	ffmpeg := exec.Command("ffmpeg",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-ss", fmt.Sprintf("%.3f", seekSec),
		"-i", track.StreamURL,
		"-vn",
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-loglevel", "warning",
		"pipe:1",
	)

	reader, err := ffmpeg.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("ffmpeg stdout pipe error: %w", err)
	}

	if err := ffmpeg.Start(); err != nil {
		return nil, nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	cleanup := func() {
		ffmpeg.Process.Kill()
		ffmpeg.Wait()
	}

	return &TrackStream{ReadCloser: reader, track: track}, cleanup, nil
}
