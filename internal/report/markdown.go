package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/webmap/internal/model"
)

// MarkdownWriter outputs the link graph in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write renders the graph in Markdown format.
func (w *MarkdownWriter) Write(graph *model.Graph) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, graph)
	w.writeSummary(md, graph)
	w.writePages(md, graph)
	w.writeFailures(md, graph)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, graph *model.Graph) {
	md.H1("Webmap Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + graph.StartURL + "`"},
			{"Started", graph.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Status", statusText(graph)},
		},
	})
	md.PlainText("")
}

// statusText returns the run status for the header table.
func statusText(graph *model.Graph) string {
	if graph.Truncated {
		return "⚠️ Truncated (partial results)"
	}
	return "✅ Complete"
}

// writeSummary writes the run statistics section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, graph *model.Graph) {
	stats := graph.Stats()

	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Pages", strconv.Itoa(stats.Nodes)},
			{"Fetched", strconv.Itoa(stats.Fetched)},
			{"Failed", strconv.Itoa(stats.Failed)},
			{"Skipped", strconv.Itoa(stats.Skipped)},
			{"Pending", strconv.Itoa(stats.Pending)},
			{"Links", strconv.Itoa(stats.Edges)},
			{"Max Depth", strconv.Itoa(stats.MaxDepth)},
		},
	})
	md.PlainText("")

	if stats.Nodes > 0 {
		w.writePieChart(md, stats)
	}
}

// writePieChart writes a mermaid pie chart of the page status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, stats model.Stats) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Status Distribution"),
		piechart.WithShowData(true),
	)

	if stats.Fetched > 0 {
		chart.LabelAndIntValue("Fetched", uint64(stats.Fetched))
	}
	if stats.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(stats.Failed))
	}
	if stats.Skipped > 0 {
		chart.LabelAndIntValue("Skipped", uint64(stats.Skipped))
	}
	if stats.Pending > 0 {
		chart.LabelAndIntValue("Pending", uint64(stats.Pending))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writePages writes the page table ordered by depth, then URL.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, graph *model.Graph) {
	md.H2("Pages")
	md.PlainText("")

	nodes := graph.NodesSorted()
	if len(nodes) == 0 {
		md.PlainText("No pages discovered.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(nodes))
	for i, p := range nodes {
		code := "-"
		if p.StatusCode != 0 {
			code = strconv.Itoa(p.StatusCode)
		}
		title := p.Title
		if title == "" {
			title = "-"
		}
		rows[i] = []string{
			strconv.Itoa(p.Depth),
			string(p.Status),
			code,
			"`" + p.URL + "`",
			truncateString(title, 50),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Depth", "Status", "Code", "URL", "Title"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes a table of failed pages with their reasons.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, graph *model.Graph) {
	var rows [][]string
	for _, p := range graph.NodesSorted() {
		if p.Status != model.StatusFailed {
			continue
		}
		rows = append(rows, []string{
			"`" + p.URL + "`",
			truncateString(p.FailureReason, 60),
		})
	}
	if len(rows) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [webmap](https://github.com/nao1215/webmap)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
