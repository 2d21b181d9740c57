package models

import "time"

// Dependency groups that can be excluded from an audit
const (
	GroupDependencies         = "dependencies"
	GroupDevDependencies      = "devDependencies"
	GroupOptionalDependencies = "optionalDependencies"
)

// DependencyGroups lists the groups in the order yarn expects them
var DependencyGroups = []string{
	GroupDependencies,
	GroupDevDependencies,
	GroupOptionalDependencies,
}

// Config holds configuration for the scanner
type Config struct {
	// Path of the repository to audit
	Path string

	// Output settings
	OutputFormat string // "terminal", "json", "sarif"
	OutputFile   string // Optional output file path

	// Audit scope
	ExcludeGroups []string // dependency groups to leave out
	ScanDepth     []string // extra flags appended to the audit command
	ExceptionIDs  []string // advisory IDs to ignore

	// Behavior settings
	FailOnVulns bool // Exit with code 1 if vulnerabilities remain
	AutoFix     bool // Attempt a lockfile patch preview (legacy yarn only)

	// Registry and cache settings
	RegistryURL string
	CacheTTL    time.Duration
	NoCache     bool

	// Timeout bounds the whole scan, including the yarn process
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path:         ".",
		OutputFormat: "terminal",
		FailOnVulns:  true,
		AutoFix:      false,
		RegistryURL:  "https://registry.yarnpkg.com",
		CacheTTL:     time.Hour,
		NoCache:      false,
		Timeout:      5 * time.Minute,
	}
}

// Excludes returns true if the group is in ExcludeGroups
func (c *Config) Excludes(group string) bool {
	for _, g := range c.ExcludeGroups {
		if g == group {
			return true
		}
	}
	return false
}
