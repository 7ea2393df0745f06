package common

import (
	"net/url"
	"strings"
)

// ParseHTTPURL parses a link as returned by a search provider. The link is not
// rewritten: anything url.Parse accepts with an http(s) scheme and a non-empty
// host is kept, including Unicode and underscore hosts.
func ParseHTTPURL(rawURL string) (*url.URL, bool) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, false
	}
	if parsed.Host == "" {
		return nil, false
	}
	return parsed, true
}
