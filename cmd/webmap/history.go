package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/webmap/internal/config"
	"github.com/nao1215/webmap/internal/database"
	"github.com/nao1215/webmap/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// This command lists and re-renders mapping runs stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [host]",
		Short: "List and replay stored mapping runs",
		Long: `History lists the mapping runs recorded in the local database and can
re-render any stored run without refetching the site.

Runs are recorded automatically by 'webmap map' unless --no-save is used.

Examples:
  # List all hosts with stored runs
  webmap history --list-hosts

  # List runs for a host
  webmap history example.com

  # List the five most recent runs across all hosts
  webmap history --limit 5

  # Re-render a stored run (use the ID from the listing)
  webmap history --run-id 3

  # Re-render a stored run as JSON
  webmap history --run-id 3 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	// Listing flags
	cmd.Flags().BoolP("list-hosts", "L", false,
		"List all hosts that have stored runs")
	cmd.Flags().Int("limit", 0,
		"Maximum number of runs to list (0 for all)")

	// Replay flags
	cmd.Flags().Int64P("run-id", "i", 0,
		"Re-render a stored run by ID (use the listing to see available IDs)")
	cmd.Flags().BoolP("json", "j", false,
		"Output the replayed run in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the replayed run in Markdown format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	listHosts, err := cmd.Flags().GetBool("list-hosts")
	if err != nil {
		return err
	}
	if listHosts {
		return listRunHosts(ctx, cmd, db)
	}

	runID, err := cmd.Flags().GetInt64("run-id")
	if err != nil {
		return err
	}
	if runID > 0 {
		return replayRun(ctx, cmd, db, runID)
	}

	host := ""
	if len(args) > 0 {
		host = args[0]
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	return listRuns(ctx, cmd, db, host, limit)
}

// listRunHosts lists all hosts that have stored runs.
func listRunHosts(ctx context.Context, cmd *cobra.Command, db *database.CrawlDB) error {
	hosts, err := db.ListHosts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list hosts: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(hosts) == 0 {
		fmt.Fprintln(out, "No stored runs found in the database.")
		fmt.Fprintln(out, "\nUse 'webmap map <url>' to map a site.")
		return nil
	}

	fmt.Fprintf(out, "Hosts with stored runs (%d):\n\n", len(hosts))
	for _, host := range hosts {
		fmt.Fprintf(out, "  • %s\n", host)
	}
	fmt.Fprintln(out, "\nUse 'webmap history <host>' to see the runs for a host.")

	return nil
}

// listRuns lists stored runs, optionally filtered by host.
func listRuns(ctx context.Context, cmd *cobra.Command, db *database.CrawlDB, host string, limit int) error {
	runs, err := db.ListRuns(ctx, host, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		if host != "" {
			fmt.Fprintf(out, "No stored runs found for %s\n", host)
		} else {
			fmt.Fprintln(out, "No stored runs found in the database.")
		}
		fmt.Fprintln(out, "\nUse 'webmap map <url>' to map a site.")
		return nil
	}

	if host != "" {
		fmt.Fprintf(out, "Runs for %s (%d):\n\n", host, len(runs))
	} else {
		fmt.Fprintf(out, "Stored runs (%d):\n\n", len(runs))
	}

	fmt.Fprintf(out, "  %-6s  %-20s  %-8s  %-8s  %-8s  %s\n",
		"ID", "Date", "Pages", "Failed", "Links", "Start URL")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))

	for _, r := range runs {
		marker := ""
		if r.Truncated {
			marker = " (truncated)"
		}
		fmt.Fprintf(out, "  %-6d  %-20s  %-8d  %-8d  %-8d  %s%s\n",
			r.ID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Nodes,
			r.Failed,
			r.Edges,
			r.StartURL,
			marker,
		)
	}

	fmt.Fprintln(out, "\nUse 'webmap history --run-id <id>' to re-render a run.")

	return nil
}

// replayRun loads a stored run and renders it in the requested format.
func replayRun(ctx context.Context, cmd *cobra.Command, db *database.CrawlDB, runID int64) error {
	graph, err := db.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run %d: %w", runID, err)
	}
	if graph == nil {
		return fmt.Errorf("run %d not found (use 'webmap history' to list runs)", runID)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("conflicting report formats: --json and --markdown cannot be used together")
	}

	out := cmd.OutOrStdout()

	var writer report.Writer
	switch {
	case jsonOutput:
		writer = report.NewJSONWriter(out, report.WithPrettyPrint())
	case markdownOutput:
		writer = report.NewMarkdownWriter(out)
	default:
		writer = report.NewSimpleWriter(out, report.WithVerbose(true))
	}

	_, err = writer.Write(graph)
	return err
}
