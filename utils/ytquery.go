package utils

import (
	"net/url"
	"strings"
)

// ShortLinkDomain is the host suffix of YouTube short links (https://youtu.be/<id>).
const ShortLinkDomain = "youtu.be"

// QueryComponents splits the raw query of u into key/value pairs.
// Pairs are separated by '&' and keys from values by '='. Values are
// returned exactly as they appear in the URL, no percent-decoding is
// applied. When a key repeats, the last occurrence wins.
func QueryComponents(u *url.URL) map[string]string {
	out := make(map[string]string)
	if u == nil || u.RawQuery == "" {
		return out
	}

	for _, pair := range strings.Split(u.RawQuery, "&") {
		parts := strings.Split(pair, "=")

		// A bare key ("?flag") has no value part.
		var val string
		if len(parts) > 1 {
			val = parts[1]
		}
		out[parts[0]] = val
	}

	return out
}

// VideoIDFromURL extracts the video ID from a YouTube URL.
// Short links carry the ID as their first path segment, every
// other form carries it in the "v" query parameter.
func VideoIDFromURL(u *url.URL) (string, bool) {
	if u == nil {
		return "", false
	}

	components := pathComponents(u.Path)
	if len(components) > 1 && strings.HasSuffix(u.Hostname(), ShortLinkDomain) {
		return components[1], true
	}

	id, ok := QueryComponents(u)["v"]
	return id, ok
}

// pathComponents returns the root "/" followed by every non-empty path segment.
func pathComponents(p string) []string {
	if p == "" {
		return nil
	}

	var out []string
	if strings.HasPrefix(p, "/") {
		out = append(out, "/")
	}

	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}

	return out
}
