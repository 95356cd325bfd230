package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/webmap/internal/model"
)

// Spider orchestrates a mapping run. It pops entries from the frontier,
// fetches and parses pages, applies depth and scope policy, and
// accumulates the result graph.
//
// A Spider is configured once and may run several crawls; each Crawl call
// uses fresh frontier, registry, and graph state.
type Spider struct {
	// fetcher retrieves page content.
	fetcher Fetcher

	// maxDepth limits how many hops from the seed are fetched.
	// 0 means only the seed; negative means unbounded.
	maxDepth int

	// maxPages caps the number of fetch attempts across the run.
	// 0 means unbounded.
	maxPages int

	// scope restricts which discovered links are enqueued.
	scope Scope

	// concurrency is the number of workers popping from the frontier.
	// 1 gives a strictly sequential, breadth-first crawl.
	concurrency int

	// ignorePatterns are URL path globs that are never enqueued
	// (e.g., "*.pdf", "/logout*").
	ignorePatterns []string

	// followPatterns, when non-empty, restrict enqueuing to paths
	// matching at least one pattern.
	followPatterns []string

	// logger receives per-page progress at debug level.
	logger *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets the maximum crawl depth. 0 fetches only the seed;
// a negative value removes the bound.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithMaxPages caps the number of fetch attempts for the whole run.
// 0 removes the cap.
func WithMaxPages(n int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = n
	}
}

// WithScope sets the traversal scope policy.
func WithScope(scope Scope) SpiderOption {
	return func(s *Spider) {
		s.scope = scope
	}
}

// WithConcurrency sets the worker pool size. Values below 1 are treated
// as 1 (sequential).
func WithConcurrency(n int) SpiderOption {
	return func(s *Spider) {
		if n < 1 {
			n = 1
		}
		s.concurrency = n
	}
}

// WithIgnorePatterns sets URL path globs to skip during traversal.
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns sets URL path globs that discovered links must match
// to be enqueued. Empty means all paths are eligible.
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// WithLogger sets the logger used for crawl progress.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider using the given fetcher.
//
// Design decision: The fetcher is required rather than constructed here
// because transport configuration (timeouts, rate limits, test doubles)
// belongs to the caller; the spider only owns traversal.
func NewSpider(fetcher Fetcher, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:     fetcher,
		maxDepth:    -1,
		maxPages:    0,
		scope:       ScopeSameHost,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// run holds the mutable state of one crawl. The mutex and condition
// variable coordinate workers around the only shared decisions: popping
// the next entry, the page budget, and detecting completion (frontier
// empty with no entry still in flight).
type run struct {
	mu       sync.Mutex
	cond     *sync.Cond
	frontier *Frontier
	registry *Registry
	graph    *model.Graph
	scope    *scopeFilter
	inflight int
	attempts int
	stopped  bool
}

// Crawl maps the site reachable from startURL and returns the discovered
// graph. The returned error is non-nil only when the start URL is invalid;
// per-page failures are recorded on their nodes, and cancellation or an
// exhausted page budget terminate the crawl early with a partial graph
// marked Truncated.
func (s *Spider) Crawl(ctx context.Context, startURL string) (*model.Graph, error) {
	seed, err := Normalize(startURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}

	scope, err := newScopeFilter(s.scope, seed)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}

	r := &run{
		frontier: NewFrontier(),
		registry: NewRegistry(),
		graph:    model.NewGraph(seed),
		scope:    scope,
	}
	r.cond = sync.NewCond(&r.mu)

	// Seed the crawl. The registry is empty, so the claim always wins.
	r.registry.MarkIfNew(seed)
	r.graph.AddNode(seed, 0)
	r.frontier.Push(seed, 0)

	// Wake blocked workers when the run is cancelled; no new entries are
	// popped afterwards, and in-flight fetches are abandoned through ctx.
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.stopped = true
			r.cond.Broadcast()
			r.mu.Unlock()
		case <-watchDone:
		}
	}()

	g, workerCtx := errgroup.WithContext(ctx)
	for i := 0; i < s.concurrency; i++ {
		g.Go(func() error {
			s.work(workerCtx, r)
			return nil
		})
	}
	_ = g.Wait()
	close(watchDone)

	if ctx.Err() != nil {
		r.graph.Truncated = true
	}
	r.graph.FinishedAt = time.Now()
	return r.graph, nil
}

// work is one worker's life cycle: pop, process, repeat until the run is
// stopped or drained.
func (s *Spider) work(ctx context.Context, r *run) {
	for {
		r.mu.Lock()
		for r.frontier.Len() == 0 && r.inflight > 0 && !r.stopped {
			r.cond.Wait()
		}
		if r.stopped || r.frontier.Len() == 0 {
			// Drained or stopped; wake the others so they exit too.
			r.cond.Broadcast()
			r.mu.Unlock()
			return
		}

		if s.maxPages > 0 && r.attempts >= s.maxPages {
			// Budget exhausted: stop pulling entries. Whatever is left in
			// the frontier stays pending in the result.
			r.stopped = true
			r.graph.Truncated = true
			r.cond.Broadcast()
			r.mu.Unlock()
			return
		}

		entry, _ := r.frontier.Pop()
		fetchable := s.maxDepth < 0 || entry.Depth <= s.maxDepth
		if fetchable {
			r.attempts++
		}
		r.inflight++
		r.mu.Unlock()

		s.process(ctx, r, entry, fetchable)

		r.mu.Lock()
		r.inflight--
		r.cond.Broadcast()
		r.mu.Unlock()
	}
}

// process runs one fetch-extract cycle for a popped entry.
func (s *Spider) process(ctx context.Context, r *run, entry Entry, fetchable bool) {
	node := r.graph.Node(entry.URL)

	if !fetchable {
		// Beyond the depth bound: recorded, never fetched. This is not a
		// failure; the page was simply out of reach.
		node.Status = model.StatusSkipped
		return
	}

	resp, err := s.fetcher.Fetch(ctx, entry.URL)
	if err != nil {
		node.Status = model.StatusFailed
		node.FailureReason = err.Error()
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			node.StatusCode = statusErr.Code
		}
		s.logger.Debug("fetch failed", "url", entry.URL, "reason", err)
		return
	}

	node.Status = model.StatusFetched
	node.StatusCode = resp.StatusCode
	s.logger.Debug("fetched", "url", entry.URL, "depth", entry.Depth, "status", resp.StatusCode)

	if !isHTML(resp.ContentType) {
		return
	}

	links := s.extract(entry.URL, resp.Body, node)
	r.graph.AddEdges(entry.URL, links)

	for _, link := range links {
		if !r.scope.allows(link) {
			continue
		}
		if !s.shouldFollow(link) {
			continue
		}
		if r.registry.MarkIfNew(link) {
			r.graph.AddNode(link, entry.Depth+1)
			r.frontier.Push(link, entry.Depth+1)
		}
	}

	r.mu.Lock()
	r.cond.Broadcast() // new entries may be available
	r.mu.Unlock()
}

// extract parses the page body and returns its link set. A page that
// cannot be parsed yields no links rather than failing the crawl.
func (s *Spider) extract(pageURL string, body []byte, node *model.Page) []string {
	extractor, err := NewExtractor(pageURL)
	if err != nil {
		return nil
	}

	result, err := extractor.Extract(bytes.NewReader(body))
	if err != nil {
		s.logger.Debug("parse degraded to empty link set", "url", pageURL, "reason", err)
		return nil
	}

	node.Title = result.Title
	return result.Links
}

// shouldFollow applies the ignore/follow path globs to a candidate link.
func (s *Spider) shouldFollow(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range s.ignorePatterns {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(s.followPatterns) > 0 {
		for _, pattern := range s.followPatterns {
			if matchPattern(pattern, path) {
				return true
			}
		}
		return false
	}

	return true
}

// matchPattern checks a URL path against a glob pattern.
// Supported forms:
//   - "/admin/*" matches "/admin" and anything under it
//   - "*.pdf" matches any path ending in ".pdf"
//   - otherwise the pattern goes through filepath.Match against the full
//     path and, for slash-free patterns, against the final path segment
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		if strings.HasSuffix(path, strings.TrimPrefix(pattern, "*")) {
			return true
		}
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}

	return false
}

// isHTML reports whether a Content-Type names an HTML document.
func isHTML(contentType string) bool {
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml+xml")
}
