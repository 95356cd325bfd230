package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/webmap/internal/model"
)

// sampleGraph builds a small completed run for report tests.
func sampleGraph() *model.Graph {
	g := model.NewGraph("http://example.com/")
	g.StartedAt = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	g.FinishedAt = g.StartedAt.Add(2 * time.Second)

	root := g.AddNode("http://example.com/", 0)
	root.Status = model.StatusFetched
	root.StatusCode = 200
	root.Title = "Example Home"

	about := g.AddNode("http://example.com/about", 1)
	about.Status = model.StatusFetched
	about.StatusCode = 200
	about.Title = "About Us"

	missing := g.AddNode("http://example.com/missing", 1)
	missing.Status = model.StatusFailed
	missing.StatusCode = 404
	missing.FailureReason = "http status 404"

	deep := g.AddNode("http://example.com/deep", 2)
	deep.Status = model.StatusSkipped

	g.AddEdges("http://example.com/", []string{
		"http://example.com/about",
		"http://example.com/missing",
	})
	g.AddEdges("http://example.com/about", []string{
		"http://example.com/deep",
	})

	return g
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header summary and pages", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf)

		n, err := w.Write(sampleGraph())
		if err != nil {
			t.Fatalf("Write() error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("Write() = %d bytes, buffer has %d", n, buf.Len())
		}

		out := buf.String()
		for _, want := range []string{
			"WEBMAP REPORT",
			"Start URL:  http://example.com/",
			"Pages:     4",
			"Fetched:   2",
			"Failed:    1",
			"Skipped:   1",
			"Links:     3",
			"http://example.com/about",
			"About Us",
			"FAILURES",
			"http status 404",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("orders pages by depth then URL", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(sampleGraph()); err != nil {
			t.Fatal(err)
		}

		out := buf.String()
		rootPos := strings.Index(out, "[0] + http://example.com/")
		aboutPos := strings.Index(out, "[1] + http://example.com/about")
		deepPos := strings.Index(out, "[2] ~ http://example.com/deep")
		if rootPos < 0 || aboutPos < 0 || deepPos < 0 {
			t.Fatalf("page lines missing:\n%s", out)
		}
		if !(rootPos < aboutPos && aboutPos < deepPos) {
			t.Errorf("pages out of order:\n%s", out)
		}
	})

	t.Run("urls only output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithURLsOnly(true))
		if _, err := w.Write(sampleGraph()); err != nil {
			t.Fatal(err)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 4 {
			t.Fatalf("lines = %d, want 4:\n%s", len(lines), buf.String())
		}
		// lexicographic order
		if lines[0] != "http://example.com/" || lines[1] != "http://example.com/about" {
			t.Errorf("unexpected order: %v", lines)
		}
		if strings.Contains(buf.String(), "WEBMAP") {
			t.Error("urls-only output contains report framing")
		}
	})

	t.Run("verbose adds edge list", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewSimpleWriter(&buf, WithVerbose(true))
		if _, err := w.Write(sampleGraph()); err != nil {
			t.Fatal(err)
		}

		if !strings.Contains(buf.String(), "http://example.com/ -> http://example.com/about") {
			t.Errorf("edge list missing:\n%s", buf.String())
		}
	})

	t.Run("truncated run is flagged", func(t *testing.T) {
		t.Parallel()

		g := sampleGraph()
		g.Truncated = true

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(g); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "TRUNCATED") {
			t.Errorf("truncation not reported:\n%s", buf.String())
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("output is valid JSON with stats and URLs", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(sampleGraph()); err != nil {
			t.Fatalf("Write() error: %v", err)
		}

		var got struct {
			Stats model.Stats  `json:"stats"`
			Graph *model.Graph `json:"graph"`
			URLs  []string     `json:"urls"`
		}
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
		}

		if got.Stats.Nodes != 4 || got.Stats.Fetched != 2 {
			t.Errorf("stats = %+v", got.Stats)
		}
		if len(got.URLs) != 4 {
			t.Errorf("urls = %v", got.URLs)
		}
		if got.Graph == nil || got.Graph.StartURL != "http://example.com/" {
			t.Errorf("graph = %+v", got.Graph)
		}
		if len(got.Graph.Edges) != 3 {
			t.Errorf("edges = %d, want 3", len(got.Graph.Edges))
		}
	})

	t.Run("pretty print is indented", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(sampleGraph()); err != nil {
			t.Fatal(err)
		}

		if !strings.Contains(buf.String(), "\n  \"stats\"") {
			t.Errorf("output not indented:\n%s", buf.String())
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(sampleGraph()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Webmap Report",
		"## Summary",
		"## Pages",
		"## Failures",
		"`http://example.com/about`",
		"http status 404",
		"pie",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// failWriter always fails, to exercise MultiWriter error handling.
type failWriter struct{}

func (failWriter) Write(*model.Graph) (int, error) {
	return 0, errors.New("write failed")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all destinations", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))

		if _, err := mw.Write(sampleGraph()); err != nil {
			t.Fatalf("Write() error: %v", err)
		}
		if a.Len() == 0 || b.Len() == 0 {
			t.Error("not all writers received output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		mw := NewMultiWriter(failWriter{}, NewSimpleWriter(&after))

		if _, err := mw.Write(sampleGraph()); err == nil {
			t.Fatal("expected error, got nil")
		}
		if after.Len() != 0 {
			t.Error("writer after failure received output")
		}
	})
}
