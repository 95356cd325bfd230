package config

import (
	"errors"
	"testing"
	"time"
)

// validConfig returns a config that passes validation, for tests to
// break one field at a time.
func validConfig() *Config {
	c := NewConfig()
	c.StartURL = "http://example.com/"
	return c
}

func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()

	c := NewConfig()

	if c.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want %d", c.MaxDepth, DefaultMaxDepth)
	}
	if c.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", c.Concurrency, DefaultConcurrency)
	}
	if c.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.Timeout, DefaultTimeout)
	}
	if c.Scope != DefaultScope {
		t.Errorf("Scope = %q, want %q", c.Scope, DefaultScope)
	}
	if len(c.IgnorePatterns) != len(DefaultIgnorePatterns) {
		t.Errorf("IgnorePatterns = %v, want defaults", c.IgnorePatterns)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid config passes", func(t *testing.T) {
		t.Parallel()

		if err := validConfig().Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "missing start URL",
			mutate:  func(c *Config) { c.StartURL = "" },
			wantErr: ErrNoStartURL,
		},
		{
			name:    "relative start URL",
			mutate:  func(c *Config) { c.StartURL = "/path/only" },
			wantErr: ErrInvalidStartURL,
		},
		{
			name:    "non-http start URL",
			mutate:  func(c *Config) { c.StartURL = "ftp://example.com/" },
			wantErr: ErrInvalidStartURL,
		},
		{
			name:    "negative depth",
			mutate:  func(c *Config) { c.MaxDepth = -1 },
			wantErr: ErrInvalidDepth,
		},
		{
			name:    "negative max pages",
			mutate:  func(c *Config) { c.MaxPages = -5 },
			wantErr: ErrInvalidMaxPages,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Concurrency = 0 },
			wantErr: ErrInvalidConcurrency,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative rate",
			mutate:  func(c *Config) { c.RequestsPerSecond = -1 },
			wantErr: ErrInvalidRate,
		},
		{
			name:    "unknown scope",
			mutate:  func(c *Config) { c.Scope = "same-galaxy" },
			wantErr: ErrInvalidScope,
		},
		{
			name: "conflicting report formats",
			mutate: func(c *Config) {
				c.JSONReport = true
				c.MarkdownReport = true
			},
			wantErr: ErrConflictingReportFormats,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := validConfig()
			tt.mutate(c)
			if err := c.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidateBoundaries(t *testing.T) {
	t.Parallel()

	c := validConfig()
	c.MaxDepth = 0          // seed only: valid
	c.MaxPages = 0          // unbounded: valid
	c.RequestsPerSecond = 0 // no limit: valid
	c.Timeout = time.Millisecond

	if err := c.Validate(); err != nil {
		t.Errorf("boundary values should validate, got %v", err)
	}
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if XDGDataDir() == "" {
		t.Error("XDGDataDir() returned empty string")
	}
	if XDGConfigDir() == "" {
		t.Error("XDGConfigDir() returned empty string")
	}
}
