// Package database provides SQLite-based storage for crawl history.
//
// Every mapping run can be recorded as a row in the runs table together
// with its pages and edges, so earlier maps of a site can be listed and
// re-rendered without refetching. The database lives in the XDG data
// directory by default.
//
// # Schema
//
//   - runs: one row per mapping run (start URL, timing, summary counts)
//   - pages: the nodes of a run's link graph
//   - edges: the directed links between pages of a run
//
// # Usage
//
//	db, err := database.Open(dbDir, database.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	runID, err := db.SaveGraph(ctx, graph)
package database
