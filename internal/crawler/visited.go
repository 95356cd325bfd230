package crawler

import "sync"

// Registry tracks every normalized URL ever accepted into the frontier.
// A URL enters the registry exactly once, at the moment it is first
// claimed, so each URL is fetched at most once per run.
type Registry struct {
	mu  sync.Mutex
	set map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{set: make(map[string]struct{})}
}

// MarkIfNew atomically checks membership and inserts the URL if absent.
// It returns true when the caller newly claimed the URL and is therefore
// the only one allowed to enqueue it. This single check-and-insert is the
// cycle-avoidance primitive: under concurrent discovery from several
// source pages, exactly one discovery wins.
func (r *Registry) MarkIfNew(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.set[url]; ok {
		return false
	}
	r.set[url] = struct{}{}
	return true
}

// Has reports whether the URL has been claimed.
func (r *Registry) Has(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.set[url]
	return ok
}

// Len returns the number of claimed URLs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.set)
}
