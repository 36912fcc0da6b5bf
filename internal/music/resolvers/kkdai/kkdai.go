// Package kkdai implements the phase-2 full-metadata resolver on top of
// github.com/kkdai/youtube/v2. It is the slow path: invoked once per user
// selection, never for a whole candidate list.
package kkdai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	youtube "github.com/kkdai/youtube/v2"

	"melobot/internal/music/search"
	"melobot/pkg/retrylimit"
)

// Resolver extracts the playable stream URL and exact metadata for one
// candidate. Extraction is retried once: signature deciphering fails
// transiently often enough to make a single retry worth it.
type Resolver struct {
	client *youtube.Client
}

func New() *Resolver {
	return &Resolver{
		client: &youtube.Client{
			HTTPClient: &http.Client{
				Timeout: 15 * time.Second,
			},
		},
	}
}

func (r *Resolver) Resolve(ctx context.Context, candidate search.Candidate) (*search.FullTrack, error) {
	ref := candidate.URL
	if ref == "" {
		ref = candidate.ID
	}
	if ref == "" {
		return nil, errors.New("candidate carries no resolvable reference")
	}

	var track *search.FullTrack
	err := retrylimit.WithRetryMax(ctx, func() error {
		var err error
		track, err = r.extract(ctx, ref)
		return err
	}, 2)
	if err != nil {
		return nil, err
	}
	return track, nil
}

func (r *Resolver) extract(ctx context.Context, ref string) (*search.FullTrack, error) {
	video, err := r.client.GetVideoContext(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("video no longer resolvable: %w", err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return nil, &retrylimit.FatalError{Err: errors.New("no audio formats available")}
	}
	formats.Sort()
	format := &formats[0]

	streamURL, err := r.client.GetStreamURLContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain stream URL: %w", err)
	}

	var thumbnail string
	if len(video.Thumbnails) > 0 {
		thumbnail = video.Thumbnails[len(video.Thumbnails)-1].URL
	}

	return &search.FullTrack{
		ID:        video.ID,
		URL:       "https://www.youtube.com/watch?v=" + video.ID,
		Title:     video.Title,
		Uploader:  video.Author,
		Duration:  video.Duration,
		StreamURL: streamURL,
		Thumbnail: thumbnail,
	}, nil
}
