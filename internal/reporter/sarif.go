package reporter

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
)

const (
	toolName       = "yarn-audit-check"
	toolVersion    = "1.0.0"
	toolInfoURI    = "https://github.com/ethanolivertroy/yarn-audit-check"
	lockfileURI    = "yarn.lock"
	sarifSchemaURI = "https://json.schemastore.org/sarif-2.1.0.json"
)

// SARIFReporter outputs the scan result in SARIF format for GitHub Code Scanning
type SARIFReporter struct{}

// SARIF structures
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	ShortDescription sarifText       `json:"shortDescription"`
	FullDescription  sarifText       `json:"fullDescription"`
	Help             sarifText       `json:"help"`
	HelpURI          string          `json:"helpUri,omitempty"`
	DefaultConfig    sarifRuleConfig `json:"defaultConfiguration"`
	Properties       sarifProperties `json:"properties"`
}

type sarifText struct {
	Text string `json:"text"`
}

type sarifRuleConfig struct {
	Level string `json:"level"`
}

type sarifProperties struct {
	Tags             []string `json:"tags"`
	SecuritySeverity string   `json:"security-severity,omitempty"`
}

type sarifInvocation struct {
	ExecutionSuccessful        bool                `json:"executionSuccessful"`
	CommandLine                string              `json:"commandLine,omitempty"`
	ExitCode                   int                 `json:"exitCode"`
	ToolExecutionNotifications []sarifNotification `json:"toolExecutionNotifications,omitempty"`
}

type sarifNotification struct {
	Level   string    `json:"level"`
	Message sarifText `json:"message"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifText         `json:"message"`
	Locations           []sarifLocation   `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           *sarifRegion  `json:"region,omitempty"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

// sarifLevel maps advisory severity to a SARIF result level
func sarifLevel(s models.Severity) string {
	switch s {
	case models.SeverityCritical, models.SeverityHigh:
		return "error"
	case models.SeverityModerate:
		return "warning"
	default:
		return "note"
	}
}

// securitySeverity maps advisory severity to the CVSS-like score GitHub sorts by
func securitySeverity(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return "9.5"
	case models.SeverityHigh:
		return "8.0"
	case models.SeverityModerate:
		return "5.5"
	case models.SeverityLow:
		return "3.0"
	default:
		return "0.0"
	}
}

// Report generates SARIF output for the given result
func (r *SARIFReporter) Report(result *models.Result) ([]byte, error) {
	rules, ruleIndexMap := r.buildRules(result.Vulnerabilities)

	run := sarifRun{
		Tool: sarifTool{
			Driver: sarifDriver{
				Name:           toolName,
				Version:        toolVersion,
				InformationURI: toolInfoURI,
				Rules:          rules,
			},
		},
		Results: r.buildResults(result.Vulnerabilities, ruleIndexMap),
	}

	if result.Status == models.StatusError || len(result.Errors) > 0 || len(result.Warnings) > 0 {
		run.Invocations = []sarifInvocation{r.buildInvocation(result)}
	}

	report := sarifReport{
		Schema:  sarifSchemaURI,
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (r *SARIFReporter) buildRules(vulns []models.Vulnerability) ([]sarifRule, map[int]int) {
	sorted := append([]models.Vulnerability(nil), vulns...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	rules := make([]sarifRule, 0, len(sorted))
	ruleIndexMap := make(map[int]int, len(sorted))

	for _, v := range sorted {
		if _, exists := ruleIndexMap[v.ID]; exists {
			continue
		}

		help := fmt.Sprintf("Upgrade %s", v.Package)
		if v.PatchedIn != "" {
			help += fmt.Sprintf(" to a version matching %s", v.PatchedIn)
		}
		help += ".\n\nDependency of: " + v.DependencyOf

		ruleIndexMap[v.ID] = len(rules)
		rules = append(rules, sarifRule{
			ID:   strconv.Itoa(v.ID),
			Name: v.Title,
			ShortDescription: sarifText{
				Text: fmt.Sprintf("%s: %s", v.Package, v.Title),
			},
			FullDescription: sarifText{
				Text: fmt.Sprintf("%s (%s) in %s", v.Title, v.Severity, v.Package),
			},
			Help:          sarifText{Text: help},
			HelpURI:       v.InfoURL,
			DefaultConfig: sarifRuleConfig{Level: sarifLevel(v.Severity)},
			Properties: sarifProperties{
				Tags:             []string{"security", "vulnerability", "yarn", string(v.Severity)},
				SecuritySeverity: securitySeverity(v.Severity),
			},
		})
	}

	return rules, ruleIndexMap
}

func (r *SARIFReporter) buildResults(vulns []models.Vulnerability, ruleIndexMap map[int]int) []sarifResult {
	results := make([]sarifResult, 0, len(vulns))

	for _, v := range vulns {
		msg := fmt.Sprintf("Dependency %s has %s advisory %d: %s (dependency of %s)",
			v.Package, v.Severity, v.ID, v.Title, v.DependencyOf)

		location := sarifLocation{
			PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifact{URI: lockfileURI},
			},
		}
		if v.LockfileLine > 0 {
			location.PhysicalLocation.Region = &sarifRegion{StartLine: v.LockfileLine}
		}

		results = append(results, sarifResult{
			RuleID:    strconv.Itoa(v.ID),
			RuleIndex: ruleIndexMap[v.ID],
			Level:     sarifLevel(v.Severity),
			Message:   sarifText{Text: msg},
			Locations: []sarifLocation{location},
			PartialFingerprints: map[string]string{
				"primaryLocationLineHash": fmt.Sprintf("%s:%d", v.Package, v.ID),
			},
		})
	}

	return results
}

func (r *SARIFReporter) buildInvocation(result *models.Result) sarifInvocation {
	inv := sarifInvocation{
		ExecutionSuccessful: result.Status != models.StatusError,
		CommandLine:         result.Command,
	}

	if f := result.Failure; f != nil {
		inv.CommandLine = f.Command
		inv.ExitCode = f.ExitStatus
		msg := f.Message
		if f.Stderr != "" {
			msg += "\n" + f.Stderr
		}
		inv.ToolExecutionNotifications = append(inv.ToolExecutionNotifications,
			sarifNotification{Level: "error", Message: sarifText{Text: msg}})
	} else {
		for _, e := range result.Errors {
			inv.ToolExecutionNotifications = append(inv.ToolExecutionNotifications,
				sarifNotification{Level: "error", Message: sarifText{Text: e}})
		}
	}
	for _, w := range result.Warnings {
		inv.ToolExecutionNotifications = append(inv.ToolExecutionNotifications,
			sarifNotification{Level: "warning", Message: sarifText{Text: w}})
	}
	return inv
}
