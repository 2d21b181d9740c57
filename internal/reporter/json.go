package reporter

import (
	"encoding/json"

	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
)

// JSONReporter outputs the scan result in JSON format
type JSONReporter struct{}

// jsonOutput represents the JSON output structure
type jsonOutput struct {
	Summary jsonSummary `json:"summary"`
	*models.Result
}

type jsonSummary struct {
	TotalVulnerabilities int            `json:"total_vulnerabilities"`
	BySeverity           map[string]int `json:"by_severity"`
	AffectedPackages     int            `json:"affected_packages"`
	Ignored              int            `json:"ignored"`
	FixesApplied         int            `json:"fixes_applied,omitempty"`
}

// Report generates JSON output for the given result
func (r *JSONReporter) Report(result *models.Result) ([]byte, error) {
	output := jsonOutput{
		Summary: jsonSummary{
			TotalVulnerabilities: len(result.Vulnerabilities),
			BySeverity:           make(map[string]int),
			Ignored:              len(result.IgnoredIDs),
		},
		Result: result,
	}

	for level, n := range severityCounts(result.Vulnerabilities) {
		output.Summary.BySeverity[string(level)] = n
	}

	packages := make(map[string]bool)
	for _, v := range result.Vulnerabilities {
		packages[v.Package] = true
	}
	output.Summary.AffectedPackages = len(packages)

	for _, fix := range result.Fixes {
		if fix.Applied {
			output.Summary.FixesApplied++
		}
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
