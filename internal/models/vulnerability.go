package models

import (
	"fmt"
	"sort"
	"strings"
)

// Severity is the advisory severity level reported by yarn
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityLevels lists every known level, lowest first
var SeverityLevels = []Severity{
	SeverityInfo,
	SeverityLow,
	SeverityModerate,
	SeverityHigh,
	SeverityCritical,
}

// Rank returns an integer rank for comparison (info=0, critical=4)
func (s Severity) Rank() int {
	for i, level := range SeverityLevels {
		if s == level {
			return i
		}
	}
	return -1
}

func (s Severity) String() string {
	return string(s)
}

// ParseSeverity parses a severity level case-insensitively.
// Unknown levels are rejected.
func ParseSeverity(s string) (Severity, error) {
	candidate := Severity(strings.ToLower(strings.TrimSpace(s)))
	if candidate.Rank() < 0 {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return candidate, nil
}

// Vulnerability is the canonical record for one advisory
type Vulnerability struct {
	ID        int      `json:"id"`
	Package   string   `json:"package"`
	PatchedIn string   `json:"patched_in,omitempty"`
	InfoURL   string   `json:"more_info"`
	Severity  Severity `json:"severity"`
	Title     string   `json:"title"`

	// DependencyPaths holds one or more "root>...>package" chains
	DependencyPaths []string `json:"dependency_paths"`

	// DependencyOf is the comma-joined form of DependencyPaths, set by reconciliation
	DependencyOf string `json:"dependency_of"`

	// LockfileLine is the yarn.lock line declaring Package, 0 if unknown
	LockfileLine int `json:"lockfile_line,omitempty"`
}

// IsDirect returns true if the package is reached without intermediate dependencies
func (v Vulnerability) IsDirect(path string) bool {
	return path == v.Package
}

// Format identifies which audit output format produced a RawFinding
type Format string

const (
	FormatTable    Format = "table"
	FormatAdvisory Format = "advisory"
)

// RawFinding is a parser's format-specific view of one finding.
// Only the normalizer interprets Fields.
type RawFinding struct {
	Format Format
	Fields map[string]string
	Paths  []string
}

// Key returns a canonical text form used to drop exact duplicates
func (r RawFinding) Key() string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(string(r.Format))
	for _, k := range keys {
		sb.WriteString("\x00")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(r.Fields[k])
	}
	for _, p := range r.Paths {
		sb.WriteString("\x00>")
		sb.WriteString(p)
	}
	return sb.String()
}

// Dist is the registry distribution metadata for one package version
type Dist struct {
	Tarball   string `json:"tarball"`
	Shasum    string `json:"shasum"`
	Integrity string `json:"integrity"`
}
