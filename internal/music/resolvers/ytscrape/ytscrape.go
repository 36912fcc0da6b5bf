// Package ytscrape implements a keyless search resolver that scrapes the
// results page. Slower and more brittle than the Data API, cheaper than a
// full yt-dlp run; it sits in the middle of the chain.
package ytscrape

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"

	"melobot/internal/music/search"
)

const Name = "ytscrape"

const defaultBaseURL = "https://www.youtube.com"

var videoRendererPattern = regexp.MustCompile(
	`"videoRenderer":\{"videoId":"([a-zA-Z0-9_-]{11})".{0,4000}?"title":\{"runs":\[\{"text":"((?:[^"\\]|\\.)*)"`)

// Resolver fetches the results page and extracts video renderers from the
// embedded initial data blob.
type Resolver struct {
	BaseURL string
	Client  *http.Client
}

func New() *Resolver {
	return &Resolver{
		BaseURL: defaultBaseURL,
		Client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

func (r *Resolver) Name() string { return Name }

func (r *Resolver) Search(ctx context.Context, query string, limit int) ([]search.Candidate, error) {
	searchURL := fmt.Sprintf("%s/results?search_query=%s", r.BaseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Language", "en")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search page fetch failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return ExtractCandidates(string(body), limit)
}

// ExtractCandidates pulls video IDs and titles out of a results page body.
// A page with no recognizable renderers is treated as malformed: a layout
// change is far more likely than a search with zero results.
func ExtractCandidates(body string, limit int) ([]search.Candidate, error) {
	matches := videoRendererPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no video renderers in results page", search.ErrMalformedResponse)
	}

	seen := make(map[string]struct{}, len(matches))
	var candidates []search.Candidate
	for _, m := range matches {
		id := m[1]
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		candidates = append(candidates, search.Candidate{
			ID:     id,
			URL:    "https://www.youtube.com/watch?v=" + id,
			Title:  unescapeJSON(m[2]),
			Source: Name,
		})
		if limit > 0 && len(candidates) >= limit {
			break
		}
	}
	return candidates, nil
}

// unescapeJSON decodes the escape sequences the title carries inside the
// initial data blob.
func unescapeJSON(s string) string {
	var decoded string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &decoded); err != nil {
		return s
	}
	return decoded
}
