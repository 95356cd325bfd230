package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/nao1215/webmap/internal/config"
	"github.com/nao1215/webmap/internal/crawler"
	"github.com/nao1215/webmap/internal/database"
	"github.com/nao1215/webmap/internal/log"
	"github.com/nao1215/webmap/internal/model"
	"github.com/nao1215/webmap/internal/report"
	"github.com/spf13/cobra"
)

// NewMapCmd creates the map command.
func NewMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map <url>",
		Short: "Map the links reachable from a starting page",
		Long: `Map fetches the starting page, extracts its hyperlinks, and follows
them breadth-first up to the configured depth. Every discovered page and
every link between pages is recorded in the result graph.

By default only pages on the starting host are followed; links to other
hosts appear in the graph as edges without being fetched.

Examples:
  # Map a site two levels deep (the default)
  webmap map https://example.com

  # Map deeper with parallel workers
  webmap map -d 4 -n 8 https://example.com

  # Allow sibling subdomains
  webmap map --scope same-domain https://docs.example.com

  # JSON report to a file
  webmap map --json -o site.json https://example.com

  # Skip archives and restrict to the docs section
  webmap map --ignore "*.zip" --follow "/docs/*" https://example.com

Configuration file (.webmap) example:
  defaults:
    requestsPerSecond: 1.0
  hosts:
    docs.example.com:
      depth: 5
      followPatterns:
        - "/guide/*"`,
		Args: cobra.ExactArgs(1),
		RunE: runMapCmd,
	}

	// Traversal flags
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum hop distance from the start URL (0 maps only the start page)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to fetch (0 for unbounded)")
	cmd.Flags().StringP("scope", "s", config.DefaultScope,
		"Traversal scope: same-host, same-domain, or unrestricted")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of parallel fetch workers (1 for strict breadth-first order)")

	// Transport flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each page fetch")
	cmd.Flags().Float64P("rate", "r", config.DefaultRequestsPerSecond,
		"Maximum requests per second (0 disables rate limiting)")

	// URL filtering flags
	cmd.Flags().StringSlice("ignore", nil,
		"URL path globs never followed (added to the built-in binary asset filter)")
	cmd.Flags().StringSlice("follow", nil,
		"URL path globs links must match to be followed")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .webmap in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("urls-only", false,
		"Print only the sorted list of discovered URLs")

	// History flags
	cmd.Flags().Bool("no-save", false,
		"Do not record this run in the history database")

	return cmd
}

// runMapCmd executes the map command.
func runMapCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown.
	// Cancellation terminates the crawl early with a partial graph.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runMap(ctx, cmd, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and the optional
// .webmap file. Per-host overrides for the start URL's host are applied
// on top of the flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.StartURL = args[0]
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.Scope, err = cmd.Flags().GetString("scope")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.RequestsPerSecond, err = cmd.Flags().GetFloat64("rate")
	if err != nil {
		return nil, err
	}

	ignore, err := cmd.Flags().GetStringSlice("ignore")
	if err != nil {
		return nil, err
	}
	cfg.IgnorePatterns = append(cfg.IgnorePatterns, ignore...)

	cfg.FollowPatterns, err = cmd.Flags().GetStringSlice("follow")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-host configurations from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.HostConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.HostConfigs = &config.File{
			Hosts: make(map[string]config.HostConfig),
		}
	}

	// Apply host overrides for the start URL's host, but only for fields
	// the user did not set explicitly on the command line.
	if host := startHost(cfg.StartURL); host != "" {
		hc := cfg.HostConfigs.GetHostConfig(host)
		applyHostOverrides(cmd, cfg, hc)
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	cfg.DBDir = config.XDGDataDir()

	return cfg, nil
}

// applyHostOverrides merges host config values into cfg, skipping any
// field whose flag the user set explicitly.
func applyHostOverrides(cmd *cobra.Command, cfg *config.Config, hc config.HostConfig) {
	if cmd.Flags().Changed("depth") {
		hc.Depth = nil
	}
	if cmd.Flags().Changed("max-pages") {
		hc.MaxPages = nil
	}
	if cmd.Flags().Changed("rate") {
		hc.RequestsPerSecond = nil
	}
	hc.Apply(cfg)
}

// startHost extracts the hostname from the start URL for host config lookup.
func startHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// runMap executes the crawl and renders the result.
func runMap(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting map",
		"url", cfg.StartURL,
		"depth", cfg.MaxDepth,
		"maxPages", cfg.MaxPages,
		"scope", cfg.Scope,
		"concurrency", cfg.Concurrency,
	)

	scope, err := crawler.ParseScope(cfg.Scope)
	if err != nil {
		return err
	}

	fetcher := crawler.NewHTTPFetcher(
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithRequestsPerSecond(cfg.RequestsPerSecond),
	)

	spider := crawler.NewSpider(fetcher,
		crawler.WithMaxDepth(cfg.MaxDepth),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithScope(scope),
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithIgnorePatterns(cfg.IgnorePatterns),
		crawler.WithFollowPatterns(cfg.FollowPatterns),
		crawler.WithLogger(logger),
	)

	startTime := time.Now()
	graph, err := spider.Crawl(ctx, cfg.StartURL)
	if err != nil {
		return err
	}

	stats := graph.Stats()
	fmt.Fprintf(cmd.ErrOrStderr(), "Mapped %d pages (%d links) in %s\n",
		stats.Nodes, stats.Edges, time.Since(startTime).Round(time.Millisecond))

	if err := outputReport(cmd, cfg, graph); err != nil {
		return err
	}

	if cfg.SaveToDB {
		if err := saveRun(ctx, cfg, graph, logger); err != nil {
			// History is best effort; the report already reached the user.
			logger.Error("failed to save run", "error", err)
		}
	}

	return nil
}

// outputReport renders the graph in the requested format.
func outputReport(cmd *cobra.Command, cfg *config.Config, graph *model.Graph) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	writer, err := selectWriter(cmd, cfg, output)
	if err != nil {
		return err
	}

	_, err = writer.Write(graph)
	return err
}

// selectWriter picks the report writer for the configured format.
func selectWriter(cmd *cobra.Command, cfg *config.Config, output *os.File) (report.Writer, error) {
	urlsOnly, err := cmd.Flags().GetBool("urls-only")
	if err != nil {
		return nil, err
	}

	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint()), nil
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output), nil
	case urlsOnly:
		return report.NewSimpleWriter(output, report.WithURLsOnly(true)), nil
	default:
		return report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose)), nil
	}
}

// saveRun records the completed run in the history database.
func saveRun(ctx context.Context, cfg *config.Config, graph *model.Graph, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	runID, err := db.SaveGraph(ctx, graph)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	logger.Info("run saved to history", "runID", runID, "dir", cfg.DBDir)
	return nil
}
