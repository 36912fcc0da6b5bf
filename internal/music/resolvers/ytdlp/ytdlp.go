// Package ytdlp implements the heavyweight last-resort search resolver by
// shelling out to yt-dlp. It is slow but keeps working when both the Data
// API and the page scrape fail, so the chain tries it last and its results
// are cached under the shorter fallback TTL.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"melobot/internal/music/search"
)

const Name = "ytdlp"

// Resolver runs yt-dlp in flat-playlist mode: one JSON object per line,
// minimal metadata, no format extraction.
type Resolver struct {
	// Binary overrides the yt-dlp executable path. Empty means $PATH lookup.
	Binary string
}

func New() *Resolver {
	return &Resolver{}
}

func (r *Resolver) Name() string { return Name }

type flatEntry struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	Channel  string  `json:"channel"`
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
}

func (r *Resolver) Search(ctx context.Context, query string, limit int) ([]search.Candidate, error) {
	binary := r.Binary
	if binary == "" {
		binary = "yt-dlp"
	}

	cmd := exec.CommandContext(ctx, binary,
		"-j",
		"--flat-playlist",
		"--no-warnings",
		fmt.Sprintf("ytsearch%d:%s", limit, query),
	)

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("yt-dlp search failed: %w", err)
	}

	return parseFlatOutput(output)
}

func parseFlatOutput(output []byte) ([]search.Candidate, error) {
	var candidates []search.Candidate

	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var entry flatEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("%w: %v", search.ErrMalformedResponse, err)
		}
		if entry.ID == "" {
			continue
		}

		uploader := entry.Uploader
		if uploader == "" {
			uploader = entry.Channel
		}
		url := entry.URL
		if url == "" {
			url = "https://www.youtube.com/watch?v=" + entry.ID
		}

		candidates = append(candidates, search.Candidate{
			ID:       entry.ID,
			URL:      url,
			Title:    entry.Title,
			Uploader: uploader,
			Duration: time.Duration(entry.Duration * float64(time.Second)),
			Source:   Name,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", search.ErrMalformedResponse, err)
	}

	return candidates, nil
}
