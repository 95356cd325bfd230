// Package config provides configuration structures and utilities for
// webmap. It defines the crawl options, their validation, and the
// optional .webmap configuration file with per-host overrides.
package config
