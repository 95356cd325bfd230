package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() before any fetch occurs;
// they are the only errors that abort a run outright.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoStartURL is returned when no start URL was given.
	ErrNoStartURL = errors.New("no start URL specified")

	// ErrInvalidStartURL is returned when the start URL does not parse,
	// is not absolute, or does not use http or https.
	ErrInvalidStartURL = errors.New("invalid start URL: must be an absolute http(s) URL")

	// ErrInvalidDepth is returned for a negative crawl depth.
	// Depth 0 is valid and maps only the start page.
	ErrInvalidDepth = errors.New("invalid depth: must be non-negative")

	// ErrInvalidMaxPages is returned for a negative page budget.
	// Zero means unbounded.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidConcurrency is returned when the worker count is below 1.
	// 1 selects the sequential crawl model.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrInvalidTimeout is returned when the per-fetch timeout is not
	// positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRate is returned for a negative request rate.
	// Zero disables rate limiting.
	ErrInvalidRate = errors.New("invalid rate: must be non-negative")

	// ErrInvalidScope is returned for an unrecognized scope name.
	ErrInvalidScope = errors.New("invalid scope: must be same-host, same-domain, or unrestricted")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used at a
	// time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
