package parsers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
)

func TestParseTable(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "yarn_audit_legacy.txt"))
	require.NoError(t, err)

	findings, err := ParseTable(string(data))
	require.NoError(t, err)

	// the fourth block repeats the first one verbatim
	require.Len(t, findings, 3)

	first := findings[0]
	assert.Equal(t, models.FormatTable, first.Format)
	assert.Equal(t, "Prototype Pollution", first.Fields["high"])
	assert.Equal(t, "semver-regex", first.Fields["Package"])
	assert.Equal(t, ">=3.1.4", first.Fields["Patched in"])
	assert.Equal(t, "semver-regex", first.Fields["Dependency of"])
	assert.Equal(t, "https://www.npmjs.com/advisories/1070458", first.Fields["More info"])
	assert.NotContains(t, first.Fields, "Path")

	assert.Equal(t, "husky>find-versions>semver-regex", findings[1].Fields["Dependency of"])

	third := findings[2]
	assert.Equal(t, "Regular Expression Denial of Service in trim-newlines", third.Fields["moderate"])
	assert.NotContains(t, third.Fields, "Path")
	assert.Equal(t, "meow", third.Fields["Dependency of"])
}

func TestParseTable_NoTable(t *testing.T) {
	_, err := ParseTable("error An unexpected error occurred: \"ENOENT\".\n")
	assert.ErrorIs(t, err, ErrNoTable)

	// start delimiter without an end delimiter
	_, err = ParseTable("┌───┬───┐\n│ high │ x │\n")
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestParseTable_ContinuationAfterPath(t *testing.T) {
	out := "┌──┬──┐\n" +
		"│ low │ Title │\n" +
		"│ Path │ a > b │\n" +
		"│  │ c │\n" +
		"│ More info │ https://www.npmjs.com/advisories/7 │\n" +
		"│  │ ignored-not │\n" +
		"└──┴──┘\n"

	findings, err := ParseTable(out)
	require.NoError(t, err)
	require.Len(t, findings, 1)

	assert.Equal(t, "Title", findings[0].Fields["low"])
	assert.NotContains(t, findings[0].Fields, "Path")
	assert.Equal(t, "https://www.npmjs.com/advisories/7 ignored-not", findings[0].Fields["More info"])
}

func TestTableLines(t *testing.T) {
	out := "header\n┌─┐\n│ a │ b │\n└─┘\nmiddle\n┌─┐\n└─┘\nfooter"

	lines, ok := TableLines(out)
	require.True(t, ok)
	assert.Equal(t, "┌─┐", lines[0])
	assert.Equal(t, "└─┘", lines[len(lines)-1])
	assert.Len(t, lines, 6)
}

func TestForFormat(t *testing.T) {
	assert.IsType(t, &TableParser{}, ForFormat(models.FormatTable))
	assert.IsType(t, &AdvisoryParser{}, ForFormat(models.FormatAdvisory))
}
