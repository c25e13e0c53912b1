package decoder

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// sanitizeMediaTarget validates that a locator is safe to pass to ffmpeg as -i.
// Resolved URLs come from a remote extractor, so a leading dash must never reach argv.
func sanitizeMediaTarget(link string) (string, error) {
	// Reject control characters before trimming can hide them
	if strings.ContainsAny(link, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	// Prevent flag injection: URLs must not start with -
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	// Treat as local file path
	return filepath.Clean(l), nil
}
