package shortener

import (
	"net/url"
	"regexp"
	"strings"
)

const untitled = "Untitled"

var schemePattern = regexp.MustCompile(`(?i)^https?://`)

// Normalize turns raw user input into an absolute URL.
// - Trims surrounding whitespace
// - Keeps inputs that already start with http:// or https:// (any case)
// - Prepends https:// to everything else
//
// No further validation happens here, so Normalize never fails.
func Normalize(raw string) string {
	u := strings.TrimSpace(raw)
	if !schemePattern.MatchString(u) {
		u = "https://" + u
	}

	return u
}

// DeriveTitle picks the display title for a new link. A non-blank supplied
// title wins; otherwise the hostname of normalizedURL without a leading
// "www." is used, falling back to "Untitled" when no host can be parsed.
func DeriveTitle(normalizedURL, supplied string) string {
	if title := strings.TrimSpace(supplied); title != "" {
		return title
	}

	u, err := url.Parse(normalizedURL)
	if err != nil {
		return untitled
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host == "" {
		return untitled
	}

	return host
}
