package reporter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
)

// TerminalReporter outputs the scan result in a human-readable terminal format
type TerminalReporter struct {
	header   lipgloss.Style
	label    lipgloss.Style
	muted    lipgloss.Style
	severity map[models.Severity]lipgloss.Style
}

// NewTerminalReporter creates a TerminalReporter. Colors are dropped
// automatically when stdout is not a terminal.
func NewTerminalReporter() *TerminalReporter {
	return &TerminalReporter{
		header: lipgloss.NewStyle().Bold(true),
		label:  lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		severity: map[models.Severity]lipgloss.Style{
			models.SeverityCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
			models.SeverityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("202")).Bold(true),
			models.SeverityModerate: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			models.SeverityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
			models.SeverityInfo:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		},
	}
}

// Report generates terminal output for the given result
func (r *TerminalReporter) Report(result *models.Result) ([]byte, error) {
	var sb strings.Builder

	switch result.Status {
	case models.StatusError:
		r.writeFailure(&sb, result.Failure)
	case models.StatusFailure:
		r.writeVulnerabilities(&sb, result)
	default:
		sb.WriteString("No vulnerabilities found in yarn dependencies.\n")
	}

	if len(result.IgnoredIDs) > 0 {
		ids := make([]string, len(result.IgnoredIDs))
		for i, id := range result.IgnoredIDs {
			ids[i] = fmt.Sprint(id)
		}
		sb.WriteString(r.muted.Render("Ignored advisories: "+strings.Join(ids, ", ")) + "\n")
	}

	for _, w := range result.Warnings {
		sb.WriteString(fmt.Sprintf("Warning: %s\n", w))
	}
	if result.Status != models.StatusError {
		for _, e := range result.Errors {
			sb.WriteString(fmt.Sprintf("Error: %s\n", e))
		}
	}

	return []byte(sb.String()), nil
}

func (r *TerminalReporter) writeFailure(sb *strings.Builder, f *models.Failure) {
	sb.WriteString("\n" + r.header.Render("YARN AUDIT FAILED") + "\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n\n")
	if f == nil {
		return
	}

	sb.WriteString(fmt.Sprintf("%s %s\n", r.label.Render("Kind:"), f.Kind))
	sb.WriteString(fmt.Sprintf("%s %s\n", r.label.Render("Message:"), f.Message))
	if f.Command != "" {
		sb.WriteString(fmt.Sprintf("%s %s\n", r.label.Render("Command:"), f.Command))
	}
	sb.WriteString(fmt.Sprintf("%s %d\n", r.label.Render("Exit status:"), f.ExitStatus))
	if stderr := strings.TrimSpace(f.Stderr); stderr != "" {
		sb.WriteString(r.label.Render("Stderr:") + "\n")
		for _, line := range strings.Split(stderr, "\n") {
			sb.WriteString("   " + line + "\n")
		}
	}
	sb.WriteString("\n")
}

func (r *TerminalReporter) writeVulnerabilities(sb *strings.Builder, result *models.Result) {
	vulns := result.Vulnerabilities

	sb.WriteString("\n" + r.header.Render("YARN AUDIT VULNERABILITIES FOUND") + "\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n\n")

	counts := severityCounts(vulns)
	var parts []string
	for i := len(models.SeverityLevels) - 1; i >= 0; i-- {
		level := models.SeverityLevels[i]
		if counts[level] > 0 {
			parts = append(parts, r.severity[level].Render(fmt.Sprintf("%d %s", counts[level], level)))
		}
	}
	sb.WriteString(fmt.Sprintf("Found %d vulnerabilities (%s)\n", len(vulns), strings.Join(parts, " | ")))
	if result.Command != "" {
		sb.WriteString(r.muted.Render("Command: "+result.Command) + "\n")
	}
	sb.WriteString("\n")

	for _, v := range vulns {
		sb.WriteString(fmt.Sprintf("📦 %s  %s\n", v.Package, r.severity[v.Severity].Render(strings.ToUpper(string(v.Severity)))))
		sb.WriteString(fmt.Sprintf("   %s %d\n", r.label.Render("ID:"), v.ID))
		sb.WriteString(fmt.Sprintf("   %s %s\n", r.label.Render("Title:"), v.Title))
		if v.PatchedIn != "" {
			sb.WriteString(fmt.Sprintf("   %s %s\n", r.label.Render("Patched in:"), v.PatchedIn))
		}
		sb.WriteString(fmt.Sprintf("   %s %s\n", r.label.Render("Dependency of:"), v.DependencyOf))
		if v.LockfileLine > 0 {
			sb.WriteString(fmt.Sprintf("   %s yarn.lock:%d\n", r.label.Render("Declared at:"), v.LockfileLine))
		}
		if v.InfoURL != "" {
			sb.WriteString(fmt.Sprintf("   %s %s\n", r.label.Render("More info:"), v.InfoURL))
		}
		sb.WriteString("\n" + strings.Repeat("-", 60) + "\n")
	}

	if len(result.Fixes) > 0 {
		sb.WriteString("\n" + r.header.Render("Auto-fix (preview only, yarn.lock not modified)") + "\n")
		for _, fix := range result.Fixes {
			if fix.Applied {
				sb.WriteString(fmt.Sprintf("   ✔ %s: %s %s -> %s\n", fix.Path, fix.Package, fix.FromVersion, fix.ToVersion))
				continue
			}
			sb.WriteString(r.muted.Render(fmt.Sprintf("   - %s: skipped, %s", fix.Path, fix.Reason)) + "\n")
		}
	}
	sb.WriteString("\n")
}
