package scanner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethanolivertroy/yarn-audit-check/internal/lockfile"
	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
	"github.com/ethanolivertroy/yarn-audit-check/internal/parsers"
	"github.com/ethanolivertroy/yarn-audit-check/internal/repo"
)

// autoFix attempts a lockfile patch for every dependency path of every
// remaining vulnerability. Outcomes are informational: they never change
// the verdict, and the patched text is only kept as a preview.
func (s *Scanner) autoFix(ctx context.Context, vulns []models.Vulnerability, result *models.Result) {
	text, err := s.repo.Read(repo.YarnLock)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("auto-fix skipped: %v", err))
		return
	}

	var manifest *parsers.Manifest
	if content, err := s.repo.Read(repo.PackageJSON); err == nil {
		if manifest, err = parsers.ParseManifest([]byte(content)); err != nil {
			s.logger.Warn("auto-fix cannot read package.json", "error", err)
		}
	}

	patcher := lockfile.NewPatcher(s.registry, s.logger)
	patched := text

	for _, v := range vulns {
		for _, path := range v.DependencyPaths {
			var (
				outcome models.FixOutcome
				next    string
			)

			_, affected, _ := lockfile.SplitPath(path)
			switch {
			case affected != v.Package:
				outcome = models.FixOutcome{Package: v.Package, Path: path}
				err = fmt.Errorf("%w: dependency path does not end at %s", models.ErrAutoFixSkipped, v.Package)
			case strings.TrimSpace(v.PatchedIn) == "":
				outcome = models.FixOutcome{Package: v.Package, Path: path}
				err = fmt.Errorf("%w: no patched version published", models.ErrAutoFixSkipped)
			default:
				next, outcome, err = patcher.Fix(ctx, patched, path, v.PatchedIn)
			}
			outcome.ID = v.ID

			if err != nil {
				if !errors.Is(err, models.ErrAutoFixSkipped) {
					s.logger.Warn("auto-fix failed", "id", v.ID, "path", path, "error", err)
				}
				outcome.Reason = skipReason(err, v, path, manifest)
				s.logger.Debug("auto-fix skipped", "id", v.ID, "path", path, "reason", outcome.Reason)
			} else {
				patched = next
			}
			result.Fixes = append(result.Fixes, outcome)
		}
	}

	if patched != text {
		result.LockfilePreview = patched
	}
}

func skipReason(err error, v models.Vulnerability, path string, manifest *parsers.Manifest) string {
	if v.IsDirect(path) {
		if group, rng, ok := manifest.Group(v.Package); ok {
			return fmt.Sprintf("direct dependency declared in %s as %q; update package.json to %s", group, rng, v.PatchedIn)
		}
		return "direct dependency; update package.json"
	}
	return strings.TrimPrefix(err.Error(), models.ErrAutoFixSkipped.Error()+": ")
}
