// Package main provides the entry point for the webmap CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for webmap.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webmap",
		Short: "Recursive web link mapper",
		Long: `Webmap recursively discovers and lists the hyperlinks reachable from a
starting web page. It fetches pages breadth-first, extracts their links,
and builds a graph of pages and the references between them.

Traversal is bounded by depth, page budget, and a scope policy that keeps
the crawl on the starting site by default.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewMapCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
