package findings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
)

func tableFinding(severity, title, pkg, dependencyOf, url string) models.RawFinding {
	return models.RawFinding{
		Format: models.FormatTable,
		Fields: map[string]string{
			severity:        title,
			"Package":       pkg,
			"Patched in":    ">=3.1.4",
			"Dependency of": dependencyOf,
			"More info":     url,
		},
	}
}

func TestNormalize_Table(t *testing.T) {
	raw := tableFinding("high", "Prototype Pollution", "semver-regex", "husky>find-versions>semver-regex",
		"https://www.npmjs.com/advisories/1070458")

	v, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, 1070458, v.ID)
	assert.Equal(t, models.SeverityHigh, v.Severity)
	assert.Equal(t, "Prototype Pollution", v.Title)
	assert.Equal(t, "semver-regex", v.Package)
	assert.Equal(t, ">=3.1.4", v.PatchedIn)
	assert.Equal(t, []string{"husky>find-versions>semver-regex"}, v.DependencyPaths)

	// the raw map is left untouched
	assert.Contains(t, raw.Fields, "high")
}

func TestNormalize_TableEverySeverity(t *testing.T) {
	for _, level := range models.SeverityLevels {
		t.Run(string(level), func(t *testing.T) {
			raw := tableFinding(string(level), "Title", "pkg", "", "https://www.npmjs.com/advisories/1")
			v, err := Normalize(raw)
			require.NoError(t, err)
			assert.Equal(t, level, v.Severity)
			assert.Equal(t, "Title", v.Title)
			assert.Equal(t, []string{"pkg"}, v.DependencyPaths, "empty Dependency of defaults to the package")
		})
	}
}

func TestNormalize_TableErrors(t *testing.T) {
	noSeverity := tableFinding("urgent", "Title", "pkg", "pkg", "https://www.npmjs.com/advisories/1")
	_, err := Normalize(noSeverity)
	assert.ErrorIs(t, err, models.ErrParseStructure)

	badURL := tableFinding("low", "Title", "pkg", "pkg", "https://github.com/advisories/GHSA-xxxx")
	_, err = Normalize(badURL)
	assert.ErrorIs(t, err, models.ErrParseStructure)
}

func TestNormalize_Advisory(t *testing.T) {
	raw := models.RawFinding{
		Format: models.FormatAdvisory,
		Fields: map[string]string{
			"id":               "1070458",
			"module_name":      "semver-regex",
			"patched_versions": ">=3.1.4",
			"url":              "https://github.com/advisories/GHSA-4x5v-gmq8-25ch",
			"severity":         "high",
			"title":            "ReDoS",
		},
		Paths: []string{"semver-regex", "husky>find-versions>semver-regex"},
	}

	v, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, 1070458, v.ID)
	assert.Equal(t, models.SeverityHigh, v.Severity)
	assert.Equal(t, "https://github.com/advisories/GHSA-4x5v-gmq8-25ch", v.InfoURL)
	assert.Len(t, v.DependencyPaths, 2)

	raw.Fields["id"] = "GHSA-4x5v"
	_, err = Normalize(raw)
	assert.ErrorIs(t, err, models.ErrParseStructure)
}

func TestNormalizeAll_SortsByID(t *testing.T) {
	raws := []models.RawFinding{
		tableFinding("low", "b", "b", "b", "https://www.npmjs.com/advisories/20"),
		tableFinding("low", "a", "a", "a", "https://www.npmjs.com/advisories/3"),
	}
	vulns, err := NormalizeAll(raws)
	require.NoError(t, err)
	require.Len(t, vulns, 2)
	assert.Equal(t, 3, vulns[0].ID)
	assert.Equal(t, 20, vulns[1].ID)
}

func TestNormalize_TableWrappedMoreInfo(t *testing.T) {
	raw := tableFinding("low", "Title", "pkg", "pkg", "https://www.npmjs.com/advisories/7 ignored-not")

	v, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, 7, v.ID)
}

func TestAdvisoryIDFromURL(t *testing.T) {
	id, err := AdvisoryIDFromURL("https://www.npmjs.com/advisories/1234")
	require.NoError(t, err)
	assert.Equal(t, 1234, id)

	id, err = AdvisoryIDFromURL("https://www.npmjs.com/advisories/7 ignored-not")
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	for _, url := range []string{"", "https://www.npmjs.com/advisories/", "https://www.npmjs.com/advisories/abc", "1234"} {
		_, err := AdvisoryIDFromURL(url)
		assert.ErrorIs(t, err, models.ErrParseStructure, url)
	}
}
