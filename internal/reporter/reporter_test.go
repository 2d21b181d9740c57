package reporter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
)

func failedResult() *models.Result {
	return &models.Result{
		Status:      models.StatusFailure,
		Command:     "yarn audit --no-color",
		YarnVersion: "1.22.19",
		Vulnerabilities: []models.Vulnerability{
			{
				ID:              1005154,
				Package:         "trim-newlines",
				PatchedIn:       ">=3.0.1",
				InfoURL:         "https://www.npmjs.com/advisories/1005154",
				Severity:        models.SeverityModerate,
				Title:           "Regular Expression Denial of Service in trim-newlines",
				DependencyPaths: []string{"meow"},
				DependencyOf:    "meow",
			},
			{
				ID:              1070458,
				Package:         "semver-regex",
				PatchedIn:       ">=3.1.4",
				InfoURL:         "https://www.npmjs.com/advisories/1070458",
				Severity:        models.SeverityHigh,
				Title:           "Prototype Pollution",
				DependencyPaths: []string{"husky>find-versions>semver-regex", "semver-regex"},
				DependencyOf:    "husky>find-versions>semver-regex, semver-regex",
				LockfileLine:    19,
			},
		},
		IgnoredIDs: []int{1179},
		FoundIDs:   []int{1179, 1005154, 1070458},
		Fixes: []models.FixOutcome{
			{ID: 1070458, Package: "semver-regex", Path: "husky>find-versions>semver-regex", Applied: true, FromVersion: "3.1.3", ToVersion: "3.1.4"},
			{ID: 1070458, Package: "semver-regex", Path: "semver-regex", Reason: "direct dependency; update package.json"},
		},
	}
}

func errorResult() *models.Result {
	return &models.Result{
		Status:          models.StatusError,
		Vulnerabilities: []models.Vulnerability{},
		IgnoredIDs:      []int{},
		Errors:          []string{"tool invocation error: yarn audit --no-color: no audit table in output"},
		Failure: &models.Failure{
			Kind:       "tool_invocation",
			Message:    "tool invocation error: yarn audit --no-color: no audit table in output",
			Command:    "yarn audit --no-color",
			Stderr:     "error An unexpected error occurred",
			ExitStatus: 1,
		},
	}
}

func TestGet(t *testing.T) {
	assert.IsType(t, &JSONReporter{}, Get("json"))
	assert.IsType(t, &SARIFReporter{}, Get("sarif"))
	assert.IsType(t, &TerminalReporter{}, Get("terminal"))
	assert.IsType(t, &TerminalReporter{}, Get(""))
}

func TestJSONReporter(t *testing.T) {
	out, err := (&JSONReporter{}).Report(failedResult())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))

	assert.Equal(t, "failure", doc["status"])
	assert.Equal(t, []any{float64(1179)}, doc["ignored_ids"])

	summary := doc["summary"].(map[string]any)
	assert.Equal(t, float64(2), summary["total_vulnerabilities"])
	assert.Equal(t, float64(2), summary["affected_packages"])
	assert.Equal(t, float64(1), summary["fixes_applied"])
	assert.Equal(t, map[string]any{"high": float64(1), "moderate": float64(1)}, summary["by_severity"])

	vulns := doc["vulnerabilities"].([]any)
	require.Len(t, vulns, 2)
	second := vulns[1].(map[string]any)
	assert.Equal(t, float64(1070458), second["id"])
	assert.Equal(t, "husky>find-versions>semver-regex, semver-regex", second["dependency_of"])
	assert.Equal(t, "https://www.npmjs.com/advisories/1070458", second["more_info"])

	assert.NotContains(t, string(out), "LockfilePreview")
}

func TestJSONReporter_ErrorPayload(t *testing.T) {
	out, err := (&JSONReporter{}).Report(errorResult())
	require.NoError(t, err)

	var doc struct {
		Status  string          `json:"status"`
		Failure *models.Failure `json:"failure"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "error", doc.Status)
	require.NotNil(t, doc.Failure)
	assert.Equal(t, "error An unexpected error occurred", doc.Failure.Stderr)
	assert.Equal(t, 1, doc.Failure.ExitStatus)
}

func TestTerminalReporter(t *testing.T) {
	out, err := NewTerminalReporter().Report(failedResult())
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "YARN AUDIT VULNERABILITIES FOUND")
	assert.Contains(t, text, "Found 2 vulnerabilities")
	assert.Contains(t, text, "📦 semver-regex")
	assert.Contains(t, text, "husky>find-versions>semver-regex, semver-regex")
	assert.Contains(t, text, "yarn.lock:19")
	assert.Contains(t, text, "semver-regex 3.1.3 -> 3.1.4")
	assert.Contains(t, text, "skipped, direct dependency; update package.json")
	assert.Contains(t, text, "1179")
}

func TestTerminalReporter_Success(t *testing.T) {
	out, err := NewTerminalReporter().Report(&models.Result{
		Status:   models.StatusSuccess,
		Errors:   []string{"No dependencies were scanned!"},
		Warnings: []string{"Scanning only optionalDependencies!"},
	})
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "No vulnerabilities found")
	assert.Contains(t, text, "Error: No dependencies were scanned!")
	assert.Contains(t, text, "Warning: Scanning only optionalDependencies!")
}

func TestTerminalReporter_Error(t *testing.T) {
	out, err := NewTerminalReporter().Report(errorResult())
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "YARN AUDIT FAILED")
	assert.Contains(t, text, "tool_invocation")
	assert.Contains(t, text, "error An unexpected error occurred")
	assert.NotContains(t, text, "No vulnerabilities found")
}

func TestSARIFReporter(t *testing.T) {
	out, err := (&SARIFReporter{}).Report(failedResult())
	require.NoError(t, err)

	var report sarifReport
	require.NoError(t, json.Unmarshal(out, &report))
	require.Len(t, report.Runs, 1)
	run := report.Runs[0]

	require.Len(t, run.Tool.Driver.Rules, 2)
	assert.Equal(t, "1005154", run.Tool.Driver.Rules[0].ID)
	assert.Equal(t, "1070458", run.Tool.Driver.Rules[1].ID)
	assert.Equal(t, "8.0", run.Tool.Driver.Rules[1].Properties.SecuritySeverity)

	require.Len(t, run.Results, 2)
	high := run.Results[1]
	assert.Equal(t, "1070458", high.RuleID)
	assert.Equal(t, 1, high.RuleIndex)
	assert.Equal(t, "error", high.Level)
	assert.Equal(t, "yarn.lock", high.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	require.NotNil(t, high.Locations[0].PhysicalLocation.Region)
	assert.Equal(t, 19, high.Locations[0].PhysicalLocation.Region.StartLine)

	assert.Equal(t, "warning", run.Results[0].Level)
	assert.Nil(t, run.Results[0].Locations[0].PhysicalLocation.Region)
	assert.Empty(t, run.Invocations)
}

func TestSARIFReporter_Error(t *testing.T) {
	out, err := (&SARIFReporter{}).Report(errorResult())
	require.NoError(t, err)

	var report sarifReport
	require.NoError(t, json.Unmarshal(out, &report))
	run := report.Runs[0]

	assert.Empty(t, run.Results)
	require.Len(t, run.Invocations, 1)
	assert.False(t, run.Invocations[0].ExecutionSuccessful)
	assert.Equal(t, 1, run.Invocations[0].ExitCode)
	require.Len(t, run.Invocations[0].ToolExecutionNotifications, 1)
	assert.Contains(t, run.Invocations[0].ToolExecutionNotifications[0].Message.Text, "error An unexpected error occurred")
}
