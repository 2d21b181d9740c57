package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	for _, in := range []string{"info", "LOW", " Moderate ", "high", "critical"} {
		s, err := ParseSeverity(in)
		require.NoError(t, err, in)
		assert.GreaterOrEqual(t, s.Rank(), 0)
	}

	_, err := ParseSeverity("severe")
	assert.Error(t, err)
}

func TestSeverity_Rank(t *testing.T) {
	assert.Equal(t, 0, SeverityInfo.Rank())
	assert.Equal(t, 4, SeverityCritical.Rank())
	assert.Less(t, SeverityModerate.Rank(), SeverityHigh.Rank())
	assert.Equal(t, -1, Severity("unknown").Rank())
}

func TestVulnerability_IsDirect(t *testing.T) {
	v := Vulnerability{Package: "semver-regex"}
	assert.True(t, v.IsDirect("semver-regex"))
	assert.False(t, v.IsDirect("husky>find-versions>semver-regex"))
}

func TestRawFinding_Key(t *testing.T) {
	a := RawFinding{Format: FormatTable, Fields: map[string]string{"Package": "x", "high": "y"}}
	b := RawFinding{Format: FormatTable, Fields: map[string]string{"high": "y", "Package": "x"}}
	c := RawFinding{Format: FormatAdvisory, Fields: map[string]string{"high": "y", "Package": "x"}}
	d := RawFinding{Format: FormatTable, Fields: map[string]string{"Package": "x", "high": "y"}, Paths: []string{"p"}}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.NotEqual(t, a.Key(), d.Key())
}

func TestConfig_Excludes(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Excludes(GroupDevDependencies))

	cfg.ExcludeGroups = []string{GroupDevDependencies}
	assert.True(t, cfg.Excludes(GroupDevDependencies))
	assert.False(t, cfg.Excludes(GroupDependencies))
}

func TestResult_Failed(t *testing.T) {
	assert.True(t, (&Result{Status: StatusFailure}).Failed())
	assert.False(t, (&Result{Status: StatusSuccess}).Failed())
	assert.False(t, (&Result{Status: StatusError}).Failed())
}
