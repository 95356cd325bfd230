package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when a URL cannot serve as a crawl identity:
// it does not parse, is not absolute, or uses a non-HTTP scheme.
var ErrInvalidURL = errors.New("invalid URL")

// Normalize converts a URL into the canonical string used as its identity
// key throughout the crawl. Two URLs that normalize identically denote the
// same page node.
//
// Rules:
//   - scheme and host are lowercased
//   - the fragment is dropped (it never denotes a distinct resource)
//   - the default port for the scheme is stripped (":80" for http,
//     ":443" for https)
//   - an empty path becomes "/"
//   - the query string is preserved
//
// Normalize is idempotent: applying it to its own output returns the same
// string.
func Normalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host in %s", ErrInvalidURL, rawURL)
	}

	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	// Strip the scheme's default port so http://a.test:80/ and
	// http://a.test/ hash to the same node.
	if port := u.Port(); (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		host := u.Hostname()
		if strings.Contains(host, ":") {
			host = "[" + host + "]" // re-bracket IPv6 literals
		}
		u.Host = host
	}

	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}
