package model

import (
	"sort"
	"sync"
	"time"
)

// Graph is the accumulated result of one mapping run: every page node
// accepted into the frontier and every link edge discovered on fetched
// pages.
//
// Design decision: The graph synchronizes its own mutations rather than
// relying on the crawl engine because the bounded-parallel engine records
// nodes and edges from several workers at once, and the graph is the only
// result state they share.
type Graph struct {
	// StartURL is the normalized seed URL of the run.
	StartURL string `json:"start_url"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the crawl terminated.
	FinishedAt time.Time `json:"finished_at"`

	// Nodes maps normalized URLs to their page nodes.
	Nodes map[string]*Page `json:"nodes"`

	// Edges lists the discovered (source, target) references.
	// Duplicate targets within one page are collapsed by the extractor,
	// so each pair appears at most once per source.
	Edges []Edge `json:"edges"`

	// Truncated reports that the crawl stopped before exhausting the
	// frontier (page budget reached or run cancelled). Remaining nodes
	// keep StatusPending.
	Truncated bool `json:"truncated,omitempty"`

	// mu guards Nodes and Edges during the crawl.
	mu sync.Mutex
}

// NewGraph creates an empty graph for a run seeded with startURL.
// The URL must already be normalized.
func NewGraph(startURL string) *Graph {
	return &Graph{
		StartURL:  startURL,
		StartedAt: time.Now(),
		Nodes:     make(map[string]*Page),
		Edges:     make([]Edge, 0),
	}
}

// AddNode creates a pending page node for a newly claimed URL and returns it.
// The caller must hold the claim from the visited registry; AddNode does not
// check for duplicates beyond replacing would-be duplicates silently.
func (g *Graph) AddNode(url string, depth int) *Page {
	g.mu.Lock()
	defer g.mu.Unlock()

	p := &Page{URL: url, Depth: depth, Status: StatusPending}
	g.Nodes[url] = p
	return p
}

// Node returns the page node for a normalized URL, or nil if none exists.
func (g *Graph) Node(url string) *Page {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Nodes[url]
}

// AddEdges records one edge from source to each target.
// The extractor returns a set, so targets contain no duplicates.
func (g *Graph) AddEdges(source string, targets []string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, t := range targets {
		g.Edges = append(g.Edges, Edge{Source: source, Target: t})
	}
}

// NodesSorted returns the page nodes ordered by depth, then URL.
// The ordering is deterministic for report output.
func (g *Graph) NodesSorted() []*Page {
	g.mu.Lock()
	defer g.mu.Unlock()

	nodes := make([]*Page, 0, len(g.Nodes))
	for _, p := range g.Nodes {
		nodes = append(nodes, p)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Depth != nodes[j].Depth {
			return nodes[i].Depth < nodes[j].Depth
		}
		return nodes[i].URL < nodes[j].URL
	})
	return nodes
}

// SortedURLs returns every node URL in lexicographic order.
// This matches the original mapper contract of returning the full
// discovered URL list sorted.
func (g *Graph) SortedURLs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	urls := make([]string, 0, len(g.Nodes))
	for u := range g.Nodes {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// Stats summarizes a completed run.
type Stats struct {
	// Nodes is the total number of page nodes.
	Nodes int `json:"nodes"`

	// Fetched is the number of successfully retrieved pages.
	Fetched int `json:"fetched"`

	// Failed is the number of pages whose fetch failed.
	Failed int `json:"failed"`

	// Skipped is the number of pages beyond the depth bound.
	Skipped int `json:"skipped"`

	// Pending is the number of pages never processed (early termination).
	Pending int `json:"pending"`

	// Edges is the total number of link edges.
	Edges int `json:"edges"`

	// MaxDepth is the deepest depth reached by any node.
	MaxDepth int `json:"max_depth"`

	// Duration is the wall-clock run time.
	Duration time.Duration `json:"duration"`
}

// Stats computes summary statistics over the graph.
func (g *Graph) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Stats{
		Nodes:    len(g.Nodes),
		Edges:    len(g.Edges),
		Duration: g.FinishedAt.Sub(g.StartedAt),
	}
	for _, p := range g.Nodes {
		switch p.Status {
		case StatusFetched:
			s.Fetched++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		case StatusPending:
			s.Pending++
		}
		if p.Depth > s.MaxDepth {
			s.MaxDepth = p.Depth
		}
	}
	return s
}
