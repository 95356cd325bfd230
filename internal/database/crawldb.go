package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/webmap/internal/model"
)

// CrawlDB provides SQLite-based storage for mapping runs.
// It manages connection pooling and provides methods to save and
// retrieve link graphs.
//
// Design decision: We use a single database file for all runs rather
// than one file per site. This keeps history listing a single query and
// simplifies backup/restore operations.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, "webmap.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Runs store one row per mapping run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_url TEXT NOT NULL,
		host TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		truncated INTEGER NOT NULL DEFAULT 0,
		node_count INTEGER NOT NULL DEFAULT 0,
		fetched_count INTEGER NOT NULL DEFAULT 0,
		failed_count INTEGER NOT NULL DEFAULT 0,
		edge_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_host ON runs(host);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Pages are the nodes of a run's link graph
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		url TEXT NOT NULL,
		depth INTEGER NOT NULL,
		status TEXT NOT NULL,
		status_code INTEGER,
		title TEXT,
		failure_reason TEXT,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);

	-- Edges are the directed links between pages of a run
	CREATE TABLE IF NOT EXISTS edges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		source TEXT NOT NULL,
		target TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_edges_run ON edges(run_id);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveGraph stores a completed mapping run and returns its run ID.
// The run row, its pages, and its edges are written in one transaction
// so history never contains a partial run.
func (cdb *CrawlDB) SaveGraph(ctx context.Context, g *model.Graph) (int64, error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op

	stats := g.Stats()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (start_url, host, started_at, finished_at, truncated, node_count, fetched_count, failed_count, edge_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		g.StartURL,
		hostOf(g.StartURL),
		g.StartedAt.UTC().Format(time.RFC3339),
		g.FinishedAt.UTC().Format(time.RFC3339),
		boolToInt(g.Truncated),
		stats.Nodes,
		stats.Fetched,
		stats.Failed,
		stats.Edges,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	pageStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO pages (run_id, url, depth, status, status_code, title, failure_reason)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer pageStmt.Close() //nolint:errcheck // Statement close on cleanup path

	for _, p := range g.NodesSorted() {
		if _, err := pageStmt.ExecContext(ctx,
			runID, p.URL, p.Depth, string(p.Status), p.StatusCode, p.Title, p.FailureReason,
		); err != nil {
			return 0, fmt.Errorf("failed to insert page %s: %w", p.URL, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO edges (run_id, source, target) VALUES (?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer edgeStmt.Close() //nolint:errcheck // Statement close on cleanup path

	for _, e := range g.Edges {
		if _, err := edgeStmt.ExecContext(ctx, runID, e.Source, e.Target); err != nil {
			return 0, fmt.Errorf("failed to insert edge: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// RunSummary contains summary information about a stored mapping run.
// This is used for displaying run history without loading the full graph.
type RunSummary struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// StartURL is the seed of the run.
	StartURL string

	// Host is the seed's hostname, used for grouping history.
	Host string

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run completed.
	FinishedAt time.Time

	// Truncated reports whether the run was stopped early.
	Truncated bool

	// Nodes, Fetched, Failed, and Edges are the stored summary counts.
	Nodes   int
	Fetched int
	Failed  int
	Edges   int
}

// ListRuns returns stored run summaries, most recent first.
// If host is non-empty, results are restricted to that host.
// If limit is positive, at most limit rows are returned.
func (cdb *CrawlDB) ListRuns(ctx context.Context, host string, limit int) ([]RunSummary, error) {
	query := `
	SELECT id, start_url, host, started_at, finished_at, truncated, node_count, fetched_count, failed_count, edge_count
	FROM runs
	WHERE 1=1
	`
	args := make([]any, 0)

	if host != "" {
		query += " AND host = ?"
		args = append(args, host)
	}

	query += " ORDER BY started_at DESC, id DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Row close on cleanup path

	var results []RunSummary
	for rows.Next() {
		var r RunSummary
		var started, finished string
		var truncated int

		if err := rows.Scan(
			&r.ID, &r.StartURL, &r.Host, &started, &finished,
			&truncated, &r.Nodes, &r.Fetched, &r.Failed, &r.Edges,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		r.StartedAt = parseTimestamp(started)
		r.FinishedAt = parseTimestamp(finished)
		r.Truncated = truncated != 0
		results = append(results, r)
	}

	return results, rows.Err()
}

// GetRun loads a stored run's complete link graph by run ID.
// It returns nil without an error when no run has that ID.
func (cdb *CrawlDB) GetRun(ctx context.Context, id int64) (*model.Graph, error) {
	var g model.Graph
	var started, finished string
	var truncated int

	err := cdb.db.QueryRowContext(ctx, `
	SELECT start_url, started_at, finished_at, truncated FROM runs WHERE id = ?
	`, id).Scan(&g.StartURL, &started, &finished, &truncated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	g.StartedAt = parseTimestamp(started)
	g.FinishedAt = parseTimestamp(finished)
	g.Truncated = truncated != 0
	g.Nodes = make(map[string]*model.Page)

	rows, err := cdb.db.QueryContext(ctx, `
	SELECT url, depth, status, status_code, title, failure_reason
	FROM pages WHERE run_id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load pages: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Row close on cleanup path

	for rows.Next() {
		var p model.Page
		var status string
		var statusCode sql.NullInt64
		var title, failureReason sql.NullString

		if err := rows.Scan(&p.URL, &p.Depth, &status, &statusCode, &title, &failureReason); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}

		p.Status = model.Status(status)
		p.StatusCode = int(statusCode.Int64)
		p.Title = title.String
		p.FailureReason = failureReason.String
		g.Nodes[p.URL] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	edgeRows, err := cdb.db.QueryContext(ctx, `
	SELECT source, target FROM edges WHERE run_id = ? ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load edges: %w", err)
	}
	defer edgeRows.Close() //nolint:errcheck // Row close on cleanup path

	for edgeRows.Next() {
		var e model.Edge
		if err := edgeRows.Scan(&e.Source, &e.Target); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		g.Edges = append(g.Edges, e)
	}

	return &g, edgeRows.Err()
}

// ListHosts returns the distinct hosts that have stored runs, sorted.
func (cdb *CrawlDB) ListHosts(ctx context.Context) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT DISTINCT host FROM runs ORDER BY host
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Row close on cleanup path

	var hosts []string
	for rows.Next() {
		var host string
		if err := rows.Scan(&host); err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, host)
	}

	return hosts, rows.Err()
}

// hostOf extracts the hostname from a URL for history grouping.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
