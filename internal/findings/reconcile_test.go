package findings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
)

func vuln(id int, paths ...string) models.Vulnerability {
	return models.Vulnerability{
		ID:              id,
		Package:         "semver-regex",
		Severity:        models.SeverityHigh,
		Title:           "Prototype Pollution",
		DependencyPaths: paths,
	}
}

func TestReconcile_MergesPaths(t *testing.T) {
	a := vuln(1, "p1")
	b := vuln(1, "p2")

	for _, input := range [][]models.Vulnerability{{a, b}, {b, a}} {
		out := Reconcile(input)
		require.Len(t, out, 1)
		assert.Equal(t, []string{"p1", "p2"}, out[0].DependencyPaths)
		assert.Equal(t, "p1, p2", out[0].DependencyOf)
	}
}

func TestReconcile_LegacyScenario(t *testing.T) {
	raws := []models.RawFinding{
		tableFinding("high", "Prototype Pollution", "semver-regex", "semver-regex",
			"https://www.npmjs.com/advisories/1070458"),
		tableFinding("high", "Prototype Pollution", "semver-regex", "husky>find-versions>semver-regex",
			"https://www.npmjs.com/advisories/1070458"),
	}
	vulns, err := NormalizeAll(raws)
	require.NoError(t, err)

	out := Reconcile(vulns)
	require.Len(t, out, 1)
	assert.Equal(t, 1070458, out[0].ID)
	assert.Equal(t, "husky>find-versions>semver-regex, semver-regex", out[0].DependencyOf)
}

func TestReconcile_OneRecordPerID(t *testing.T) {
	out := Reconcile([]models.Vulnerability{
		vuln(9, "x"),
		vuln(2, "a>b"),
		vuln(9, "x"),
		vuln(2, "c>b"),
		vuln(5),
	})

	require.Len(t, out, 3)
	assert.Equal(t, []int{2, 5, 9}, []int{out[0].ID, out[1].ID, out[2].ID})
	assert.Equal(t, "a>b, c>b", out[0].DependencyOf)
	assert.Equal(t, "semver-regex", out[1].DependencyOf, "no paths defaults to the package")
	assert.Equal(t, []string{"x"}, out[2].DependencyPaths)
}

func TestReconcile_DoesNotAliasInput(t *testing.T) {
	input := []models.Vulnerability{vuln(1, "b"), vuln(1, "a")}
	Reconcile(input)
	assert.Equal(t, []string{"b"}, input[0].DependencyPaths)
}
