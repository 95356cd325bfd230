package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/webmap/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// urlsOnly restricts the output to the sorted URL list, one per line.
	// Useful for piping into other tools.
	urlsOnly bool

	// verbose adds the edge list after the page sections.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithURLsOnly restricts output to the plain sorted URL list.
func WithURLsOnly(only bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.urlsOnly = only
	}
}

// WithVerbose enables verbose output with the full edge list.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write renders the graph in human-readable format.
func (w *SimpleWriter) Write(graph *model.Graph) (int, error) {
	var sb strings.Builder

	if w.urlsOnly {
		for _, u := range graph.SortedURLs() {
			sb.WriteString(u)
			sb.WriteString("\n")
		}
		return w.output.Write([]byte(sb.String()))
	}

	w.writeHeader(&sb, graph)
	w.writeSummary(&sb, graph)
	w.writePages(&sb, graph)
	w.writeFailures(&sb, graph)
	if w.verbose {
		w.writeEdges(&sb, graph)
	}

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, graph *model.Graph) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                           WEBMAP REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Start URL:  %s\n", graph.StartURL))
	sb.WriteString(fmt.Sprintf("Started:    %s\n", graph.StartedAt.Format("2006-01-02 15:04:05 MST")))

	if graph.Truncated {
		sb.WriteString("Status:     TRUNCATED (page budget reached or run cancelled)\n")
	} else {
		sb.WriteString("Status:     Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the run statistics section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, graph *model.Graph) {
	stats := graph.Stats()

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Pages:     %d\n", stats.Nodes))
	sb.WriteString(fmt.Sprintf("  Fetched:   %d\n", stats.Fetched))
	sb.WriteString(fmt.Sprintf("  Failed:    %d\n", stats.Failed))
	sb.WriteString(fmt.Sprintf("  Skipped:   %d\n", stats.Skipped))
	sb.WriteString(fmt.Sprintf("  Pending:   %d\n", stats.Pending))
	sb.WriteString(fmt.Sprintf("  Links:     %d\n", stats.Edges))
	sb.WriteString(fmt.Sprintf("  Max Depth: %d\n", stats.MaxDepth))
	sb.WriteString(fmt.Sprintf("  Duration:  %s\n", stats.Duration.Round(time.Millisecond)))
	sb.WriteString("\n")
}

// writePages writes every page node ordered by depth, then URL.
func (w *SimpleWriter) writePages(sb *strings.Builder, graph *model.Graph) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, p := range graph.NodesSorted() {
		sb.WriteString(fmt.Sprintf("  [%d] %s %s\n", p.Depth, statusIndicator(p), p.URL))
		if p.Title != "" {
			sb.WriteString(fmt.Sprintf("        %s\n", p.Title))
		}
	}
	sb.WriteString("\n")
}

// writeFailures writes the failed pages with their reasons.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, graph *model.Graph) {
	var failed []*model.Page
	for _, p := range graph.NodesSorted() {
		if p.Status == model.StatusFailed {
			failed = append(failed, p)
		}
	}
	if len(failed) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILURES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, p := range failed {
		sb.WriteString(fmt.Sprintf("  * %s\n", p.URL))
		sb.WriteString(fmt.Sprintf("    Reason: %s\n", p.FailureReason))
	}
	sb.WriteString("\n")
}

// writeEdges writes the full link edge list.
func (w *SimpleWriter) writeEdges(sb *strings.Builder, graph *model.Graph) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("LINKS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, e := range graph.Edges {
		sb.WriteString(fmt.Sprintf("  %s -> %s\n", e.Source, e.Target))
	}
	sb.WriteString("\n")
}

// statusIndicator returns a short visual marker for a page's state.
func statusIndicator(p *model.Page) string {
	switch p.Status {
	case model.StatusFetched:
		return "+"
	case model.StatusFailed:
		return "!"
	case model.StatusSkipped:
		return "~"
	case model.StatusPending:
		return "?"
	default:
		return " "
	}
}
