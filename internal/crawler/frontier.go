package crawler

import "sync"

// Entry is one unit of pending work: a normalized URL and its hop-count
// distance from the seed. An entry is owned by the Frontier until popped,
// then by the worker that popped it for the duration of one
// fetch-extract cycle.
type Entry struct {
	// URL is the normalized URL to process.
	URL string

	// Depth is the hop count from the seed URL.
	Depth int
}

// Frontier is the ordered work queue of entries awaiting traversal.
//
// Ordering is strictly first-in-first-out. Breadth-first order matters for
// correctness, not just fairness: it guarantees every depth-D entry is
// popped before any depth-(D+1) entry, so the depth bound is observed
// before deeper work is attempted.
type Frontier struct {
	mu      sync.Mutex
	entries []Entry
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{entries: make([]Entry, 0)}
}

// Push appends an entry. Callers must only push URLs they have newly
// claimed through Registry.MarkIfNew; the frontier itself does not
// deduplicate.
func (f *Frontier) Push(url string, depth int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, Entry{URL: url, Depth: depth})
}

// Pop removes and returns the oldest entry. The second return value is
// false when the frontier is empty.
func (f *Frontier) Pop() (Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.entries) == 0 {
		return Entry{}, false
	}
	e := f.entries[0]
	f.entries = f.entries[1:]
	return e, true
}

// Len returns the number of pending entries.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
