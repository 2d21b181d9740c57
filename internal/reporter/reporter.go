package reporter

import "github.com/ethanolivertroy/yarn-audit-check/internal/models"

// Reporter is the interface for output formatters
type Reporter interface {
	// Report generates output for the given scan result
	Report(result *models.Result) ([]byte, error)
}

// Get returns a reporter for the specified format
func Get(format string) Reporter {
	switch format {
	case "json":
		return &JSONReporter{}
	case "sarif":
		return &SARIFReporter{}
	default:
		return NewTerminalReporter()
	}
}

// severityCounts counts vulnerabilities per severity level
func severityCounts(vulns []models.Vulnerability) map[models.Severity]int {
	counts := make(map[models.Severity]int, len(models.SeverityLevels))
	for _, v := range vulns {
		counts[v.Severity]++
	}
	return counts
}
