package model

// Status represents the lifecycle state of a page node.
//
// Design decision: We use a string type rather than iota constants because
// the status is serialized into reports and the database, and a readable
// string survives schema and version changes better than a bare integer.
type Status string

const (
	// StatusPending marks a page that was discovered and accepted into the
	// frontier but not yet processed. Pages keep this status in the final
	// result when the crawl terminates early (page budget or cancellation).
	StatusPending Status = "pending"

	// StatusFetched marks a page that was retrieved successfully.
	StatusFetched Status = "fetched"

	// StatusFailed marks a page whose fetch failed (transport error,
	// timeout, or non-2xx response). The failure reason is recorded on
	// the node. Failures are per-page and never abort the crawl.
	StatusFailed Status = "failed"

	// StatusSkipped marks a page that was popped from the frontier with a
	// depth beyond the configured maximum. It was never fetched, which is
	// different from having failed.
	StatusSkipped Status = "skipped"
)

// Page represents one discovered page: the seed, or a link found on some
// other page. Nodes are created when a URL is first accepted into the
// frontier and are mutated only by the crawl engine, which transitions
// them out of StatusPending. Nodes are never removed during a run; the
// surviving set forms the crawl result.
type Page struct {
	// URL is the normalized URL identifying this node. Two URLs that
	// normalize identically are the same node.
	URL string `json:"url"`

	// Depth is the hop-count distance from the start URL. The seed has
	// depth 0. When several pages link to the same target, the first
	// discovery to claim the URL fixes the recorded depth.
	Depth int `json:"depth"`

	// Status is the node's lifecycle state.
	Status Status `json:"status"`

	// StatusCode is the HTTP response status code, zero if no response
	// was received.
	StatusCode int `json:"status_code,omitempty"`

	// Title is the page title from the <title> tag, empty for non-HTML
	// content or unfetched pages.
	Title string `json:"title,omitempty"`

	// FailureReason describes why the fetch failed.
	// Only set when Status is StatusFailed.
	FailureReason string `json:"failure_reason,omitempty"`
}

// Fetched reports whether the page was retrieved successfully.
func (p *Page) Fetched() bool { return p.Status == StatusFetched }

// Edge records that Target was found referenced on Source's page.
// Both URLs are normalized. Edges are deduplicated per (source, target)
// pair within a page, but the same target may be referenced from many
// sources, so the graph is a multi-source structure.
type Edge struct {
	// Source is the normalized URL of the page the link was found on.
	Source string `json:"source"`

	// Target is the normalized URL the link points to. The target may be
	// out of crawl scope, in which case the edge exists but no node does.
	Target string `json:"target"`
}
