package crawler

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Scope restricts which discovered links are eligible for further
// traversal. Edges to out-of-scope targets are still recorded in the
// result; the targets are just never enqueued.
type Scope string

const (
	// ScopeSameHost allows only links whose host (including any
	// non-default port) equals the seed's host.
	ScopeSameHost Scope = "same-host"

	// ScopeSameDomain allows links within the seed's registrable domain,
	// so blog.example.com is in scope for a crawl seeded at
	// www.example.com.
	ScopeSameDomain Scope = "same-domain"

	// ScopeUnrestricted places no host restriction on traversal.
	ScopeUnrestricted Scope = "unrestricted"
)

// ParseScope converts a configuration string into a Scope.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeSameHost:
		return ScopeSameHost, nil
	case ScopeSameDomain:
		return ScopeSameDomain, nil
	case ScopeUnrestricted:
		return ScopeUnrestricted, nil
	default:
		return "", fmt.Errorf("unknown scope %q (want same-host, same-domain, or unrestricted)", s)
	}
}

// scopeFilter decides scope membership for one run. It precomputes the
// seed's host and registrable domain so each candidate check is a string
// comparison.
type scopeFilter struct {
	scope      Scope
	seedHost   string
	seedDomain string
}

// newScopeFilter builds a filter for the given seed URL, which must be
// normalized.
func newScopeFilter(scope Scope, seed string) (*scopeFilter, error) {
	u, err := url.Parse(seed)
	if err != nil {
		return nil, err
	}

	return &scopeFilter{
		scope:      scope,
		seedHost:   u.Host,
		seedDomain: registrableDomain(u.Hostname()),
	}, nil
}

// registrableDomain returns the eTLD+1 for a hostname, or the hostname
// itself when no registrable domain can be derived. IP literals are
// returned unchanged: EffectiveTLDPlusOne would happily split an IP on
// dots, which would put unrelated addresses in the same "domain".
func registrableDomain(hostname string) string {
	if net.ParseIP(hostname) != nil {
		return hostname
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(hostname)
	if err != nil {
		return hostname
	}
	return domain
}

// allows reports whether a normalized candidate URL is in scope.
func (f *scopeFilter) allows(candidate string) bool {
	if f.scope == ScopeUnrestricted {
		return true
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}

	switch f.scope {
	case ScopeSameHost:
		return strings.EqualFold(u.Host, f.seedHost)
	case ScopeSameDomain:
		return strings.EqualFold(registrableDomain(u.Hostname()), f.seedDomain)
	default:
		return false
	}
}
