// Package ytapi implements the fast, quota-limited search resolver on top
// of the YouTube Data API v3. It is the cheapest and fastest strategy in
// the chain, but its daily quota runs out, so quota exhaustion is reported
// as a distinguishable failure kind for the chain to cool it down.
package ytapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"melobot/internal/music/search"
	"melobot/pkg/retrylimit"
)

const Name = "ytapi"

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// Resolver queries the Data API search endpoint, then the videos endpoint
// for durations. The HTTP client is pooled and shared across requests.
type Resolver struct {
	APIKey  string
	BaseURL string
	Client  *http.Client

	limiter *retrylimit.AdaptiveLimiter
}

// New creates a Data API resolver. The client has no timeout of its own;
// the chain bounds every call through the context.
func New(apiKey string) *Resolver {
	return &Resolver{
		APIKey:  apiKey,
		BaseURL: defaultBaseURL,
		Client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 30,
			},
		},
		limiter: retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
	}
}

func (r *Resolver) Name() string { return Name }

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type errorResponse struct {
	Error struct {
		Errors []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// Search runs one Data API search and enriches the hits with durations.
func (r *Resolver) Search(ctx context.Context, query string, limit int) ([]search.Candidate, error) {
	if r.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", search.ErrQuotaExceeded)
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{
		"part":       {"snippet"},
		"q":          {query},
		"type":       {"video"},
		"maxResults": {fmt.Sprintf("%d", limit)},
		"order":      {"relevance"},
		"key":        {r.APIKey},
	}

	var sr searchResponse
	if err := r.getJSON(ctx, "/search", params, &sr); err != nil {
		return nil, err
	}
	r.limiter.Success()

	if len(sr.Items) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(sr.Items))
	for _, item := range sr.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}

	durations := r.fetchDurations(ctx, ids)

	candidates := make([]search.Candidate, 0, len(sr.Items))
	for _, item := range sr.Items {
		id := item.ID.VideoID
		if id == "" {
			continue
		}
		candidates = append(candidates, search.Candidate{
			ID:       id,
			URL:      "https://www.youtube.com/watch?v=" + id,
			Title:    item.Snippet.Title,
			Uploader: item.Snippet.ChannelTitle,
			Duration: durations[id],
			Source:   Name,
		})
	}
	return candidates, nil
}

// fetchDurations is best effort: candidates without a known duration are
// still usable, so errors here only cost display fidelity.
func (r *Resolver) fetchDurations(ctx context.Context, ids []string) map[string]time.Duration {
	durations := make(map[string]time.Duration, len(ids))
	if len(ids) == 0 {
		return durations
	}

	params := url.Values{
		"part": {"contentDetails"},
		"id":   {strings.Join(ids, ",")},
		"key":  {r.APIKey},
	}

	var vr videosResponse
	if err := r.getJSON(ctx, "/videos", params, &vr); err != nil {
		log.Warnf("[YTAPI] Failed to fetch video durations: %v", err)
		return durations
	}

	for _, item := range vr.Items {
		durations[item.ID] = ParseISODuration(item.ContentDetails.Duration)
	}
	return durations
}

func (r *Resolver) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", search.ErrMalformedResponse, err)
		}
		return nil

	case resp.StatusCode == http.StatusForbidden:
		var er errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)
		for _, e := range er.Error.Errors {
			if e.Reason == "quotaExceeded" || e.Reason == "dailyLimitExceeded" {
				r.limiter.RateLimited()
				return fmt.Errorf("%w: %s", search.ErrQuotaExceeded, e.Reason)
			}
		}
		return fmt.Errorf("data api forbidden (status %d)", resp.StatusCode)

	case resp.StatusCode == http.StatusTooManyRequests:
		r.limiter.RateLimited()
		return fmt.Errorf("%w: rate limited", search.ErrQuotaExceeded)

	default:
		return fmt.Errorf("data api request failed with status %d", resp.StatusCode)
	}
}

// ParseISODuration converts an ISO 8601 duration like PT1H2M3S or P1DT2H
// to a time.Duration. Malformed input yields zero.
func ParseISODuration(s string) time.Duration {
	s = strings.TrimPrefix(s, "P")
	var total time.Duration

	date, clock, _ := strings.Cut(s, "T")
	if i := strings.Index(date, "D"); i >= 0 {
		var days int
		if _, err := fmt.Sscanf(date[:i], "%d", &days); err == nil {
			total += time.Duration(days) * 24 * time.Hour
		}
	}
	s = clock

	if i := strings.Index(s, "H"); i >= 0 {
		var hours int
		if _, err := fmt.Sscanf(s[:i], "%d", &hours); err == nil {
			total += time.Duration(hours) * time.Hour
		}
		s = s[i+1:]
	}
	if i := strings.Index(s, "M"); i >= 0 {
		var minutes int
		if _, err := fmt.Sscanf(s[:i], "%d", &minutes); err == nil {
			total += time.Duration(minutes) * time.Minute
		}
		s = s[i+1:]
	}
	if i := strings.Index(s, "S"); i >= 0 {
		var seconds int
		if _, err := fmt.Sscanf(s[:i], "%d", &seconds); err == nil {
			total += time.Duration(seconds) * time.Second
		}
	}
	return total
}
