package config

// HostConfig holds per-host overrides for mapping behavior. This allows
// tuning depth or politeness for specific sites without changing the
// global flags.
type HostConfig struct {
	// Depth overrides the global max depth for this host.
	// Nil means use the global value; 0 maps only the start page.
	Depth *int `yaml:"depth,omitempty"`

	// MaxPages overrides the global page budget for this host.
	MaxPages *int `yaml:"maxPages,omitempty"`

	// RequestsPerSecond overrides the global request rate for this host.
	RequestsPerSecond *float64 `yaml:"requestsPerSecond,omitempty"`

	// IgnorePatterns are URL path globs to skip when mapping this host.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns restrict mapping of this host to matching paths.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// File represents the structure of the .webmap configuration file.
type File struct {
	// Hosts maps hostnames to their overrides (e.g., "docs.example.com").
	Hosts map[string]HostConfig `yaml:"hosts,omitempty"`

	// Defaults contains overrides applied to every host unless the
	// host-specific entry overrides them again.
	Defaults HostConfig `yaml:"defaults,omitempty"`
}

// GetHostConfig returns the merged configuration for a hostname:
// file defaults first, then the host-specific entry on top.
func (f *File) GetHostConfig(host string) HostConfig {
	result := f.Defaults

	hc, ok := f.Hosts[host]
	if !ok {
		return result
	}

	if hc.Depth != nil {
		result.Depth = hc.Depth
	}
	if hc.MaxPages != nil {
		result.MaxPages = hc.MaxPages
	}
	if hc.RequestsPerSecond != nil {
		result.RequestsPerSecond = hc.RequestsPerSecond
	}
	if len(hc.IgnorePatterns) > 0 {
		result.IgnorePatterns = hc.IgnorePatterns
	}
	if len(hc.FollowPatterns) > 0 {
		result.FollowPatterns = hc.FollowPatterns
	}
	return result
}

// Apply merges the host overrides into a run configuration.
func (hc HostConfig) Apply(c *Config) {
	if hc.Depth != nil {
		c.MaxDepth = *hc.Depth
	}
	if hc.MaxPages != nil {
		c.MaxPages = *hc.MaxPages
	}
	if hc.RequestsPerSecond != nil {
		c.RequestsPerSecond = *hc.RequestsPerSecond
	}
	if len(hc.IgnorePatterns) > 0 {
		c.IgnorePatterns = append(c.IgnorePatterns, hc.IgnorePatterns...)
	}
	if len(hc.FollowPatterns) > 0 {
		c.FollowPatterns = hc.FollowPatterns
	}
}
