package findings

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
	"github.com/ethanolivertroy/yarn-audit-check/internal/parsers"
)

// AdvisoryURLPrefix precedes the numeric ID in the legacy "More info" column
const AdvisoryURLPrefix = "https://www.npmjs.com/advisories/"

// Legacy table column names
const (
	columnPackage      = "Package"
	columnPatchedIn    = "Patched in"
	columnDependencyOf = "Dependency of"
	columnMoreInfo     = "More info"
)

// Normalize converts a parser's RawFinding into the canonical Vulnerability
func Normalize(raw models.RawFinding) (models.Vulnerability, error) {
	switch raw.Format {
	case models.FormatTable:
		return normalizeTable(raw.Fields)
	case models.FormatAdvisory:
		return normalizeAdvisory(raw)
	default:
		return models.Vulnerability{}, fmt.Errorf("%w: unknown finding format %q", models.ErrParseStructure, raw.Format)
	}
}

// NormalizeAll normalizes every finding and sorts the result by ID
func NormalizeAll(raws []models.RawFinding) ([]models.Vulnerability, error) {
	vulns := make([]models.Vulnerability, 0, len(raws))
	for _, raw := range raws {
		v, err := Normalize(raw)
		if err != nil {
			return nil, err
		}
		vulns = append(vulns, v)
	}

	sort.SliceStable(vulns, func(i, j int) bool {
		return vulns[i].ID < vulns[j].ID
	})
	return vulns, nil
}

// normalizeTable handles the table quirk where the severity level is the
// column name and the title is its value, e.g. "high" => "Prototype Pollution"
func normalizeTable(fields map[string]string) (models.Vulnerability, error) {
	rest := make(map[string]string, len(fields))
	for k, v := range fields {
		rest[k] = v
	}

	var v models.Vulnerability
	for _, level := range models.SeverityLevels {
		if title, ok := rest[string(level)]; ok {
			v.Severity = level
			v.Title = title
			delete(rest, string(level))
			break
		}
	}
	if v.Severity == "" {
		return v, fmt.Errorf("%w: no severity column in audit table", models.ErrParseStructure)
	}

	id, err := AdvisoryIDFromURL(rest[columnMoreInfo])
	if err != nil {
		return v, err
	}

	v.ID = id
	v.Package = rest[columnPackage]
	v.PatchedIn = rest[columnPatchedIn]
	v.InfoURL = rest[columnMoreInfo]

	path := rest[columnDependencyOf]
	if path == "" {
		path = v.Package
	}
	v.DependencyPaths = []string{path}

	return v, nil
}

func normalizeAdvisory(raw models.RawFinding) (models.Vulnerability, error) {
	fields := raw.Fields

	id, err := strconv.Atoi(strings.TrimSpace(fields[parsers.AdvisoryID]))
	if err != nil {
		return models.Vulnerability{}, fmt.Errorf("%w: advisory key %q is not numeric", models.ErrParseStructure, fields[parsers.AdvisoryID])
	}

	sev, err := models.ParseSeverity(fields[parsers.AdvisorySeverity])
	if err != nil {
		return models.Vulnerability{}, fmt.Errorf("%w: advisory %d: %v", models.ErrParseStructure, id, err)
	}

	v := models.Vulnerability{
		ID:        id,
		Package:   fields[parsers.AdvisoryModule],
		PatchedIn: fields[parsers.AdvisoryPatched],
		InfoURL:   fields[parsers.AdvisoryURL],
		Severity:  sev,
		Title:     fields[parsers.AdvisoryTitle],
	}

	v.DependencyPaths = append([]string(nil), raw.Paths...)
	if len(v.DependencyPaths) == 0 {
		v.DependencyPaths = []string{v.Package}
	}

	return v, nil
}

// AdvisoryIDFromURL extracts 1234 from https://www.npmjs.com/advisories/1234.
// Only the first word after the prefix is read.
func AdvisoryIDFromURL(url string) (int, error) {
	_, rest, found := strings.Cut(strings.TrimSpace(url), AdvisoryURLPrefix)
	if !found {
		return 0, fmt.Errorf("%w: no advisory ID in %q", models.ErrParseStructure, url)
	}

	// a wrapped table cell can carry trailing text after the ID
	if fields := strings.Fields(rest); len(fields) > 0 {
		rest = fields[0]
	}

	id, err := strconv.Atoi(strings.TrimSuffix(rest, "/"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid advisory ID in %q", models.ErrParseStructure, url)
	}
	return id, nil
}
