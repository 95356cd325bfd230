// Package crawler implements the traversal engine for webmap.
//
// # Architecture
//
// The package is designed around the Spider type, which coordinates the
// crawl: it pops (URL, depth) entries from a breadth-first Frontier,
// fetches pages through a Fetcher, extracts candidate links with the
// Extractor, applies depth and scope policy, and records the resulting
// page nodes and link edges into a model.Graph.
//
// # Components
//
//   - Spider: the orchestrator running the pop/fetch/extract/push loop
//   - Frontier: FIFO work queue of (URL, depth) entries
//   - Registry: visited-URL set with an atomic check-and-insert primitive
//   - Extractor: HTML anchor extraction and URL resolution
//   - Fetcher: page retrieval contract, with an HTTP implementation
//
// # Identity
//
// Every URL entering the Frontier or Registry is first passed through
// Normalize, so two spellings of the same resource collapse to one node.
// The fragment never distinguishes nodes; the query string does.
//
// # Concurrency
//
// The Spider runs a fixed pool of workers popping from the shared
// Frontier. With one worker the crawl is strictly sequential and
// breadth-first; with more workers the Registry's MarkIfNew guarantees
// that no URL is ever fetched twice, and breadth ordering is preserved
// only approximately. Cancellation is observed between pops; in-flight
// fetches are abandoned through their request context.
package crawler
