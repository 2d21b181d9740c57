package parsers

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
)

// Field names of advisory findings, read by the normalizer
const (
	AdvisoryID       = "id"
	AdvisoryModule   = "module_name"
	AdvisoryPatched  = "patched_versions"
	AdvisoryURL      = "url"
	AdvisorySeverity = "severity"
	AdvisoryTitle    = "title"
)

// AdvisoryParser parses `yarn npm audit --json` output (yarn v2+)
type AdvisoryParser struct{}

// auditReport represents the top-level JSON document
type auditReport struct {
	Advisories map[string]advisory `json:"advisories"`
}

type advisory struct {
	ModuleName      string `json:"module_name"`
	PatchedVersions string `json:"patched_versions"`
	URL             string `json:"url"`
	Severity        string `json:"severity"`
	Title           string `json:"title"`
	Findings        []struct {
		Version string   `json:"version"`
		Paths   []string `json:"paths"`
	} `json:"findings"`
}

// Parse extracts one RawFinding per advisory
func (p *AdvisoryParser) Parse(output []byte) ([]models.RawFinding, error) {
	return ParseAdvisories(output)
}

// ParseAdvisories decodes the advisories map. Findings are ordered by
// numeric advisory ID so the result is deterministic.
func ParseAdvisories(output []byte) ([]models.RawFinding, error) {
	var report auditReport
	if err := json.Unmarshal(output, &report); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	ids := make([]string, 0, len(report.Advisories))
	for id := range report.Advisories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA != nil || errB != nil {
			return ids[i] < ids[j]
		}
		return a < b
	})

	findings := make([]models.RawFinding, 0, len(ids))
	for _, id := range ids {
		adv := report.Advisories[id]

		var paths []string
		if len(adv.Findings) > 0 {
			paths = adv.Findings[0].Paths
		}
		if len(paths) == 0 {
			// no path means a direct dependency
			paths = []string{adv.ModuleName}
		}

		findings = append(findings, models.RawFinding{
			Format: models.FormatAdvisory,
			Fields: map[string]string{
				AdvisoryID:       id,
				AdvisoryModule:   adv.ModuleName,
				AdvisoryPatched:  adv.PatchedVersions,
				AdvisoryURL:      adv.URL,
				AdvisorySeverity: adv.Severity,
				AdvisoryTitle:    adv.Title,
			},
			Paths: append([]string(nil), paths...),
		})
	}

	return findings, nil
}
