// Package report provides output formatting for link graph results.
//
// This package supports multiple output formats:
//   - Simple: human-readable text for terminal display
//   - JSON: machine-readable format for tool integration
//   - Markdown: documentation-friendly format with tables
//
// All writers implement the Writer interface, which renders a completed
// model.Graph to an output destination.
package report
