package search

import (
	"fmt"
	"net/url"
	"strings"
)

// IsVideoURL reports whether the input is a direct link to a single video.
func IsVideoURL(s string) bool {
	return strings.Contains(s, "youtube.com/watch?v=") ||
		strings.Contains(s, "music.youtube.com/watch?v=") ||
		strings.Contains(s, "youtu.be/")
}

// VideoID extracts the video ID from a watch or short URL. Returns "" when
// the URL carries no recognizable ID.
func VideoID(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}

	switch u.Hostname() {
	case "youtu.be":
		return strings.Trim(u.Path, "/")
	case "www.youtube.com", "youtube.com", "music.youtube.com":
		if u.Path == "/watch" {
			return u.Query().Get("v")
		}
	}
	return ""
}

// CleanVideoURL strips tracking and playlist parameters, leaving only the
// video reference.
func CleanVideoURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	host := u.Hostname()
	switch host {
	case "youtu.be":
		vid := strings.Trim(u.Path, "/")
		if vid == "" {
			return raw
		}
		return fmt.Sprintf("https://youtu.be/%s", vid)
	case "www.youtube.com", "youtube.com", "music.youtube.com":
		if u.Path == "/watch" {
			if vid := u.Query().Get("v"); vid != "" {
				return fmt.Sprintf("https://%s/watch?v=%s", host, vid)
			}
		}
		return raw
	default:
		return raw
	}
}
