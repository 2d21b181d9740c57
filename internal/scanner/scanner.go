package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/ethanolivertroy/yarn-audit-check/internal/cache"
	"github.com/ethanolivertroy/yarn-audit-check/internal/clients"
	"github.com/ethanolivertroy/yarn-audit-check/internal/findings"
	"github.com/ethanolivertroy/yarn-audit-check/internal/lockfile"
	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
	"github.com/ethanolivertroy/yarn-audit-check/internal/parsers"
	"github.com/ethanolivertroy/yarn-audit-check/internal/repo"
	"github.com/ethanolivertroy/yarn-audit-check/internal/shell"
)

const cacheAppName = "yarn-audit-check"

// Scanner orchestrates one yarn audit of a repository
type Scanner struct {
	config   *models.Config
	repo     *repo.Repo
	runner   shell.Runner
	registry lockfile.Registry
	logger   *slog.Logger
}

// Option customizes a Scanner
type Option func(*Scanner)

// WithRunner replaces the process runner
func WithRunner(r shell.Runner) Option {
	return func(s *Scanner) { s.runner = r }
}

// WithRegistry replaces the package registry used by auto-fix
func WithRegistry(r lockfile.Registry) Option {
	return func(s *Scanner) { s.registry = r }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// New creates a new Scanner with the given configuration
func New(config *models.Config, opts ...Option) (*Scanner, error) {
	s := &Scanner{
		config: config,
		repo:   repo.New(config.Path),
		runner: shell.NewExec(config.Path),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	// the registry is only consulted by auto-fix
	if s.registry == nil {
		var c *cache.Cache
		if config.AutoFix && !config.NoCache {
			var err error
			c, err = cache.New(cacheAppName, config.CacheTTL)
			if err != nil {
				// Non-fatal: continue without cache
				s.logger.Warn("registry cache disabled", "error", err)
				c = nil
			}
		}
		s.registry = clients.NewRegistryClient(config.RegistryURL, c)
	}

	return s, nil
}

// ShouldRun returns true if the repository is managed with yarn
func (s *Scanner) ShouldRun() bool {
	return s.repo.Exists(repo.YarnLock)
}

// Scan runs the audit and returns the result handed to reporters. The
// result is never nil. A non-nil error is a *models.ScanError and the
// result then has StatusError and a Failure payload.
func (s *Scanner) Scan(ctx context.Context) (*models.Result, error) {
	result := &models.Result{
		Status:          models.StatusSuccess,
		Vulnerabilities: []models.Vulnerability{},
		IgnoredIDs:      []int{},
	}

	exceptions, err := findings.NewExceptionSet(s.config.ExceptionIDs)
	if err != nil {
		return s.fail(result, &models.ScanError{Kind: models.ErrConfiguration, Err: err})
	}

	// the scope does not depend on the yarn version, so an empty scope is
	// reported even when yarn itself is unusable
	if _, _, err := groupScope(s.config); err != nil {
		return s.skip(result, err)
	}

	version, err := s.yarnVersion(ctx)
	if err != nil {
		return s.fail(result, err)
	}
	result.YarnVersion = version

	cmd, warnings, err := selectCommand(s.config, version)
	if err != nil {
		return s.skip(result, err)
	}
	for _, w := range warnings {
		s.logger.Warn(w)
	}
	result.Warnings = append(result.Warnings, warnings...)
	result.Warnings = append(result.Warnings, s.uncoveredLockfiles()...)
	result.Command = cmd.String()

	s.logger.Info("running audit", "command", result.Command, "yarn_version", version)
	out, err := s.runner.Run(ctx, yarnCommand, cmd.Args...)
	if err != nil {
		return s.fail(result, &models.ScanError{
			Kind:       models.ErrToolInvocation,
			Command:    result.Command,
			Stderr:     out.Stderr,
			ExitStatus: out.ExitCode,
			Err:        err,
		})
	}
	s.logger.Debug("audit finished", "exit_status", out.ExitCode, "duration", out.Duration)

	// yarn v1 exits 0 only when nothing was found
	if cmd.Format == models.FormatTable && out.Success() {
		return result, nil
	}

	raws, err := parsers.ForFormat(cmd.Format).Parse([]byte(out.Stdout))
	if err != nil {
		return s.fail(result, &models.ScanError{
			Kind:       models.ErrToolInvocation,
			Command:    result.Command,
			Stderr:     out.Stderr,
			ExitStatus: out.ExitCode,
			Err:        err,
		})
	}

	vulns, err := findings.NormalizeAll(raws)
	if err != nil {
		return s.fail(result, &models.ScanError{
			Kind:       models.ErrParseStructure,
			Command:    result.Command,
			ExitStatus: out.ExitCode,
			Err:        err,
		})
	}

	vulns = findings.Reconcile(vulns)
	for _, v := range vulns {
		result.FoundIDs = append(result.FoundIDs, v.ID)
	}

	kept, ignored := exceptions.Filter(vulns)
	if ignored != nil {
		result.IgnoredIDs = ignored
	}
	s.logger.Info("audit parsed",
		"found", len(vulns),
		"ignored", len(ignored),
		"remaining", len(kept))

	if len(kept) == 0 {
		return result, nil
	}

	s.annotateLockfileLines(kept)

	if s.config.AutoFix && cmd.Format == models.FormatTable {
		s.autoFix(ctx, kept, result)
	}

	result.Vulnerabilities = kept
	result.Status = models.StatusFailure
	return result, nil
}

// yarnVersion runs `yarn --version`
func (s *Scanner) yarnVersion(ctx context.Context) (string, error) {
	command := shell.Command(yarnCommand, versionArgs...)

	out, err := s.runner.Run(ctx, yarnCommand, versionArgs...)
	if err == nil && !out.Success() {
		err = fmt.Errorf("exit status %d", out.ExitCode)
	}
	if err != nil {
		return "", &models.ScanError{
			Kind:       models.ErrToolInvocation,
			Command:    command,
			Stderr:     out.Stderr,
			ExitStatus: out.ExitCode,
			Err:        err,
		}
	}
	return strings.TrimSpace(out.Stdout), nil
}

// uncoveredLockfiles reports yarn.lock files below the root. Each one
// belongs to a separate project that the root audit does not cover.
func (s *Scanner) uncoveredLockfiles() []string {
	paths, err := s.repo.Glob(repo.YarnLockfiles)
	if err != nil {
		s.logger.Warn("cannot search for nested lockfiles", "error", err)
		return nil
	}

	var warnings []string
	for _, p := range paths {
		if p == repo.Files[repo.YarnLock].Name {
			continue
		}
		warnings = append(warnings, fmt.Sprintf("%s is not covered by this audit; scan %s separately", p, path.Dir(p)))
	}
	return warnings
}

// annotateLockfileLines records where each vulnerable package is declared
func (s *Scanner) annotateLockfileLines(vulns []models.Vulnerability) {
	text, err := s.repo.Read(repo.YarnLock)
	if err != nil {
		return
	}
	for i := range vulns {
		if b, ok := lockfile.FindBlock(text, vulns[i].Package); ok {
			vulns[i].LockfileLine = b.Line(text)
		}
	}
}

// skip records a configuration error that leaves nothing to scan. It is
// reported without a verdict.
func (s *Scanner) skip(result *models.Result, err error) (*models.Result, error) {
	s.logger.Error("audit skipped", "error", err)
	result.Errors = append(result.Errors, strings.TrimPrefix(err.Error(), models.ErrConfiguration.Error()+": "))
	return result, nil
}

func (s *Scanner) fail(result *models.Result, err error) (*models.Result, error) {
	var scanErr *models.ScanError
	if !errors.As(err, &scanErr) {
		scanErr = &models.ScanError{Kind: models.ErrToolInvocation, Err: err}
	}

	s.logger.Error("scan failed",
		"error", scanErr,
		"command", scanErr.Command,
		"exit_status", scanErr.ExitStatus)

	result.Status = models.StatusError
	result.Failure = scanErr.Failure()
	result.Errors = append(result.Errors, scanErr.Error())
	return result, scanErr
}
