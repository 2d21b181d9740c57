package scanner

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
	"github.com/ethanolivertroy/yarn-audit-check/internal/shell"
)

const yarnCommand = "yarn"

// BreakingVersion is the first yarn release whose audit prints JSON advisories
const BreakingVersion = "2.0.0"

var (
	versionArgs     = []string{"--version"}
	legacyAuditArgs = []string{"audit", "--no-color"}
	modernAllArgs   = []string{"npm", "audit", "--all", "--json"}
	modernProdArgs  = []string{"npm", "audit", "--environment", "production", "--json"}
)

// Messages reported for dependency group exclusions
const (
	msgNothingScanned   = "No dependencies were scanned!"
	msgOnlyOptionalDeps = "Scanning only optionalDependencies!"
)

// auditCommand is the yarn invocation chosen for one scan
type auditCommand struct {
	Args   []string
	Format models.Format
}

func (c auditCommand) String() string {
	return shell.Command(yarnCommand, c.Args...)
}

// IsLegacy reports whether version predates BreakingVersion. Versions
// that do not parse are treated as legacy.
func IsLegacy(version string) bool {
	v := strings.TrimSpace(version)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Compare(v, "v"+BreakingVersion) < 0
}

// groupScope returns the dependency groups left after exclusions. A nil
// slice means no exclusions were configured.
func groupScope(cfg *models.Config) (groups, warnings []string, err error) {
	if len(cfg.ExcludeGroups) == 0 {
		return nil, nil, nil
	}

	for _, g := range models.DependencyGroups {
		if !cfg.Excludes(g) {
			groups = append(groups, g)
		}
	}

	if len(groups) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", models.ErrConfiguration, msgNothingScanned)
	}
	if cfg.Excludes(models.GroupDependencies) && cfg.Excludes(models.GroupDevDependencies) {
		warnings = append(warnings, msgOnlyOptionalDeps)
	}
	return groups, warnings, nil
}

// depthFlags turns scan_depth entries into command flags
func depthFlags(entries []string) []string {
	flags := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, "-") {
			e = "--" + e
		}
		flags = append(flags, e)
	}
	return flags
}

// selectCommand builds the audit command for the installed yarn version
func selectCommand(cfg *models.Config, yarnVersion string) (auditCommand, []string, error) {
	groups, warnings, err := groupScope(cfg)
	if err != nil {
		return auditCommand{}, nil, err
	}

	if IsLegacy(yarnVersion) {
		args := append([]string{}, legacyAuditArgs...)
		if len(groups) > 0 {
			args = append(args, "--groups")
			args = append(args, groups...)
		}
		args = append(args, depthFlags(cfg.ScanDepth)...)
		return auditCommand{Args: args, Format: models.FormatTable}, warnings, nil
	}

	base := modernAllArgs
	if cfg.Excludes(models.GroupDevDependencies) {
		base = modernProdArgs
	}
	args := append(append([]string{}, base...), depthFlags(cfg.ScanDepth)...)
	return auditCommand{Args: args, Format: models.FormatAdvisory}, warnings, nil
}
