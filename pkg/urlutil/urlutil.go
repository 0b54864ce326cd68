package urlutil

import (
	"net/url"
	"strings"
)

// Canonicalize applies a deterministic normalization to a URL:
//   - Scheme and host are lowercased
//   - Default ports are omitted (:80 for http, :443 for https)
//   - Trailing slashes are removed from the path, except for root "/"
//   - Fragments are removed
//
// The query is preserved; review listings are addressed by it.
// Canonicalize(Canonicalize(u)) == Canonicalize(u).
func Canonicalize(sourceUrl url.URL) url.URL {
	canonical := sourceUrl

	canonical.Scheme = strings.ToLower(canonical.Scheme)
	canonical.Host = strings.ToLower(canonical.Host)

	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	for len(canonical.Path) > 1 && strings.HasSuffix(canonical.Path, "/") {
		canonical.Path = canonical.Path[:len(canonical.Path)-1]
	}

	canonical.Fragment = ""
	canonical.RawFragment = ""

	return canonical
}

// Resolve appends path segments to base and replaces its query with query.
// Segments are escaped individually.
func Resolve(base url.URL, query url.Values, segments ...string) url.URL {
	resolved := base
	if resolved.Path == "" {
		resolved.Path = "/"
	}
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	resolved = *resolved.JoinPath(escaped...)
	if len(query) > 0 {
		resolved.RawQuery = query.Encode()
	} else {
		resolved.RawQuery = ""
	}
	resolved.Fragment = ""
	return resolved
}
