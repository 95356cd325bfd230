package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. Where applicable these match the original
// web mapper defaults; the rest are chosen to be polite to the sites
// being mapped.
const (
	// DefaultMaxDepth of 2 maps the start page, its links, and their
	// links. Deep sites need this raised explicitly; unbounded mapping
	// of an unknown site is rarely what anyone wants by accident.
	DefaultMaxDepth = 2

	// DefaultMaxPages caps the total fetch attempts per run. This
	// prevents runaway mapping of infinitely-generating sites
	// (calendars, faceted search). Zero disables the cap.
	DefaultMaxPages = 1000

	// DefaultConcurrency of 1 selects the sequential crawl model, which
	// gives strict breadth-first fetch order. Raise it for large sites
	// where exact ordering does not matter.
	DefaultConcurrency = 1

	// DefaultTimeout is the per-fetch timeout. Pages slower than this
	// are recorded as failed and the crawl moves on.
	DefaultTimeout = 10 * time.Second

	// DefaultRequestsPerSecond spaces out requests across the run.
	// 2 rps matches the original mapper's politeness delay.
	DefaultRequestsPerSecond = 2.0

	// DefaultScope restricts traversal to the seed's host, the original
	// mapper behavior.
	DefaultScope = "same-host"

	// DefaultMaxBodySize limits the response bytes read per page.
	// 5MB is generous for HTML while bounding memory use.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// AppName is the application name used for XDG directory paths.
	AppName = "webmap"
)

// DefaultIgnorePatterns skips binary assets that cannot contain links.
// These extensions mirror the original mapper's filter.
var DefaultIgnorePatterns = []string{
	"*.pdf", "*.jpg", "*.jpeg", "*.png", "*.gif", "*.svg",
}

// Config holds all options for one mapping run. It is populated from CLI
// flags and the optional .webmap file, validated once, and passed through
// the application by value reference rather than global state.
type Config struct {
	// StartURL is the seed of the crawl.
	StartURL string

	// MaxDepth is the maximum hop distance from the seed. 0 maps only
	// the start page. Negative values are rejected by Validate.
	MaxDepth int

	// MaxPages caps fetch attempts for the run; 0 means unbounded.
	MaxPages int

	// Scope names the traversal scope policy: "same-host",
	// "same-domain", or "unrestricted".
	Scope string

	// Concurrency is the crawl worker count; 1 is sequential.
	Concurrency int

	// Timeout bounds each individual fetch.
	Timeout time.Duration

	// RequestsPerSecond limits the request rate; 0 disables limiting.
	RequestsPerSecond float64

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// IgnorePatterns are URL path globs never enqueued.
	IgnorePatterns []string

	// FollowPatterns, when set, restrict enqueuing to matching paths.
	FollowPatterns []string

	// Verbose enables debug-level log output.
	Verbose bool

	// JSONReport selects JSON report output.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile, when set, receives the report instead of stdout.
	ReportFile string

	// SaveToDB controls whether the run is recorded in the crawl
	// history database.
	SaveToDB bool

	// DBDir is the directory holding the SQLite database.
	DBDir string

	// ConfigFilePath is the explicit path of the .webmap file, if any.
	ConfigFilePath string

	// HostConfigs holds per-host overrides loaded from the config file.
	HostConfigs *File
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor rather than relying on zero
// values because most defaults are non-zero, and the constructor
// documents what they are.
func NewConfig() *Config {
	return &Config{
		MaxDepth:          DefaultMaxDepth,
		MaxPages:          DefaultMaxPages,
		Scope:             DefaultScope,
		Concurrency:       DefaultConcurrency,
		Timeout:           DefaultTimeout,
		RequestsPerSecond: DefaultRequestsPerSecond,
		MaxBodySize:       DefaultMaxBodySize,
		IgnorePatterns:    append([]string(nil), DefaultIgnorePatterns...),
	}
}

// XDGDataDir returns the XDG data directory for webmap, which holds the
// crawl history database.
// On Linux: ~/.local/share/webmap
// On macOS: ~/Library/Application Support/webmap
// On Windows: %LOCALAPPDATA%\webmap
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for webmap.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// It runs once before any fetch; these are the only fatal errors of a
// run (everything later is recorded per-page).
func (c *Config) Validate() error {
	if c.StartURL == "" {
		return ErrNoStartURL
	}
	if !validStartURL(c.StartURL) {
		return ErrInvalidStartURL
	}
	if c.MaxDepth < 0 {
		return ErrInvalidDepth
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.RequestsPerSecond < 0 {
		return ErrInvalidRate
	}
	if !validScope(c.Scope) {
		return ErrInvalidScope
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

// validStartURL reports whether s is an absolute http(s) URL with a host.
func validStartURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// validScope reports whether s names a known scope policy.
func validScope(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "same-host", "same-domain", "unrestricted":
		return true
	default:
		return false
	}
}
