package lockfile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
)

// Registry is the package registry consulted for patched versions
type Registry interface {
	ListVersions(ctx context.Context, name string) ([]string, error)
	Metadata(ctx context.Context, name, version string) (models.Dist, error)
}

// Patcher rewrites yarn.lock blocks to point at a patched package version.
// It works on text only; nothing is written to disk.
type Patcher struct {
	registry Registry
	logger   *slog.Logger
}

// NewPatcher creates a Patcher. A nil logger discards output.
func NewPatcher(registry Registry, logger *slog.Logger) *Patcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Patcher{registry: registry, logger: logger}
}

func skipped(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrAutoFixSkipped, fmt.Sprintf(format, args...))
}

// Fix bumps the package at the end of path to the lowest version matching
// patchedIn. On any miss the original text is returned together with an
// error wrapping models.ErrAutoFixSkipped.
func (p *Patcher) Fix(ctx context.Context, text, path, patchedIn string) (string, models.FixOutcome, error) {
	if strings.Contains(text, "\r\n") {
		out, outcome, err := p.Fix(ctx, strings.ReplaceAll(text, "\r\n", "\n"), path, patchedIn)
		if err != nil {
			return text, outcome, err
		}
		return strings.ReplaceAll(out, "\n", "\r\n"), outcome, nil
	}

	outcome := models.FixOutcome{Path: path}

	parent, affected, ok := SplitPath(path)
	outcome.Package = affected
	if !ok {
		return text, outcome, skipped("%s is a direct dependency", affected)
	}

	parentBlock, ok := FindBlock(text, parent)
	if !ok {
		return text, outcome, skipped("no lockfile entry for %s", parent)
	}

	entry, ok := FindEntry(parentBlock, affected)
	if !ok {
		return text, outcome, skipped("%s does not list %s", parent, affected)
	}

	constraint, err := ParseConstraint(patchedIn)
	if err != nil {
		return text, outcome, skipped("%v", err)
	}

	versions, err := p.registry.ListVersions(ctx, affected)
	if err != nil {
		return text, outcome, skipped("listing versions of %s: %v", affected, err)
	}

	version, err := SelectVersion(constraint, versions)
	if err != nil {
		return text, outcome, skipped("%s: %v", affected, err)
	}
	outcome.ToVersion = version

	// the block declaring affected@range may only resolve inside that range
	inRange, err := RangeAllows(entry.Range, version)
	if err != nil {
		return text, outcome, skipped("%s requires %s@%s: %v", parent, affected, entry.Range, err)
	}
	if !inRange {
		return text, outcome, skipped("%s@%s is outside the range %s requires (%s)", affected, version, parent, entry.Range)
	}

	decl, ok := FindDeclaration(text, affected, entry.Range)
	if !ok {
		return text, outcome, skipped("no lockfile entry for %s@%s", affected, entry.Range)
	}
	outcome.FromVersion, _ = decl.Field("version")

	dist, err := p.registry.Metadata(ctx, affected, version)
	if err != nil {
		return text, outcome, skipped("metadata for %s@%s: %v", affected, version, err)
	}
	if dist.Tarball == "" {
		return text, outcome, skipped("registry has no tarball for %s@%s", affected, version)
	}

	updated := RewriteBlock(decl.Text, version, dist)
	outcome.Applied = true

	p.logger.Debug("patched lockfile entry",
		"package", affected,
		"range", entry.Range,
		"from", outcome.FromVersion,
		"to", version)

	return text[:decl.Start] + updated + text[decl.End:], outcome, nil
}

var (
	versionLine   = regexp.MustCompile(`(?m)^([ \t]+)version .*$`)
	resolvedLine  = regexp.MustCompile(`(?m)^([ \t]+)resolved .*$`)
	integrityLine = regexp.MustCompile(`(?m)^([ \t]+)integrity .*$`)
)

// RewriteBlock substitutes the version, resolved and integrity lines of a block
func RewriteBlock(block, version string, dist models.Dist) string {
	resolved := dist.Tarball
	if dist.Shasum != "" {
		resolved += "#" + dist.Shasum
	}

	block = replaceLine(block, versionLine, "version", fmt.Sprintf("%q", version))
	block = replaceLine(block, resolvedLine, "resolved", fmt.Sprintf("%q", resolved))
	if dist.Integrity != "" {
		block = replaceLine(block, integrityLine, "integrity", dist.Integrity)
	}
	return block
}

func replaceLine(block string, re *regexp.Regexp, key, value string) string {
	return re.ReplaceAllStringFunc(block, func(line string) string {
		indent := re.FindStringSubmatch(line)[1]
		return indent + key + " " + value
	})
}
