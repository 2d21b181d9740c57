package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ethanolivertroy/yarn-audit-check/internal/config"
	"github.com/ethanolivertroy/yarn-audit-check/internal/models"
	"github.com/ethanolivertroy/yarn-audit-check/internal/reporter"
	"github.com/ethanolivertroy/yarn-audit-check/internal/scanner"
)

// version is set at build time with -ldflags "-X .../cmd.version=..."
var version = "dev"

// ExitError carries the process exit code out of a command run
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

type options struct {
	configPath    string
	output        string
	format        string
	exceptions    []string
	excludeGroups []string
	scanDepth     []string
	registryURL   string
	autoFix       bool
	fixPreview    bool
	noFail        bool
	noCache       bool
	timeout       time.Duration
	verbose       bool
	logFormat     string

	scannerOptions []scanner.Option
}

func newRootCmd(scannerOptions ...scanner.Option) *cobra.Command {
	opts := &options{scannerOptions: scannerOptions}

	cmd := &cobra.Command{
		Use:   "yarn-audit-check [path]",
		Short: "Audit a yarn project's dependencies for known vulnerabilities",
		Long: `yarn-audit-check runs yarn's own audit command against a repository and
turns its output into a normalized, de-duplicated vulnerability report.

yarn v1 prints a box-drawn table (yarn audit --no-color); yarn v2 and later
print JSON advisories (yarn npm audit --json). Both are reduced to one record
per advisory, filtered against an exception list, and reported.

Settings are read from .yarn-audit.toml (or .yarn-audit.yaml) in the scanned
repository, then YARN_AUDIT_* environment variables and .env, then flags.

Exit codes:
  0  no vulnerabilities remain (or --no-fail)
  1  vulnerabilities remain after exceptions
  2  yarn could not be run or its output could not be parsed

Examples:
  # Audit the current directory
  yarn-audit-check

  # Ignore an advisory and skip devDependencies
  yarn-audit-check --exception 1070458 --exclude-group devDependencies

  # Output SARIF for GitHub Code Scanning
  yarn-audit-check --format sarif --output results.sarif

  # Preview a lockfile patch for transitive findings (yarn v1 only)
  yarn-audit-check --auto-fix --fix-preview`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args)
		},
	}

	addFlags(cmd.Flags(), opts)
	return cmd
}

func addFlags(fs *pflag.FlagSet, opts *options) {
	fs.StringVarP(&opts.configPath, "config", "c", "", "Config file (default: .yarn-audit.toml in the scanned path)")
	fs.StringVarP(&opts.output, "output", "o", "", "Output file path (default: stdout)")
	fs.StringVarP(&opts.format, "format", "f", "terminal", "Output format: terminal, json, sarif")
	fs.StringSliceVarP(&opts.exceptions, "exception", "e", nil, "Advisory ID to ignore (repeatable)")
	fs.StringSliceVar(&opts.excludeGroups, "exclude-group", nil, "Dependency group to exclude: dependencies, devDependencies, optionalDependencies")
	fs.StringSliceVar(&opts.scanDepth, "scan-depth", nil, "Extra flag appended to the audit command (repeatable)")
	fs.StringVar(&opts.registryURL, "registry-url", "", "Package registry used by auto-fix")
	fs.BoolVar(&opts.autoFix, "auto-fix", false, "Attempt a lockfile patch for transitive findings (yarn v1 only)")
	fs.BoolVar(&opts.fixPreview, "fix-preview", false, "Print the patched yarn.lock to stderr")
	fs.BoolVar(&opts.noFail, "no-fail", false, "Don't exit with error code if vulnerabilities are found")
	fs.BoolVar(&opts.noCache, "no-cache", false, "Disable registry response caching")
	fs.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Timeout for the whole scan")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	fs.StringVar(&opts.logFormat, "log-format", "text", "Log format: text, json")
}

// applyFlags overrides cfg with every flag set on the command line
func applyFlags(fs *pflag.FlagSet, opts *options, cfg *models.Config) {
	if fs.Changed("format") {
		cfg.OutputFormat = opts.format
	}
	if fs.Changed("output") {
		cfg.OutputFile = opts.output
	}
	if fs.Changed("exception") {
		cfg.ExceptionIDs = append(cfg.ExceptionIDs, opts.exceptions...)
	}
	if fs.Changed("exclude-group") {
		cfg.ExcludeGroups = opts.excludeGroups
	}
	if fs.Changed("scan-depth") {
		cfg.ScanDepth = opts.scanDepth
	}
	if fs.Changed("registry-url") {
		cfg.RegistryURL = opts.registryURL
	}
	if fs.Changed("auto-fix") {
		cfg.AutoFix = opts.autoFix
	}
	if fs.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if opts.noFail {
		cfg.FailOnVulns = false
	}
	if opts.noCache {
		cfg.NoCache = true
	}
}

// Execute runs the root command and exits with its status
func Execute() {
	os.Exit(run(newRootCmd(), os.Args[1:]))
}

func run(cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	return 2
}

func loadConfig(cmd *cobra.Command, opts *options, path string) (*models.Config, []string, error) {
	cfgPath := opts.configPath
	if cfgPath == "" {
		cfgPath = config.Find(path)
	}

	cfg, warnings, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	cfg.Path = path

	env, err := config.Environment(path)
	if err != nil {
		return nil, nil, err
	}
	if err := config.ApplyEnv(cfg, env); err != nil {
		return nil, nil, err
	}

	applyFlags(cmd.Flags(), opts, cfg)

	if err := config.Validate(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, warnings, nil
}

func runCheck(cmd *cobra.Command, opts *options, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}

	logger := newLogger(cmd.ErrOrStderr(), opts.verbose, opts.logFormat)

	cfg, warnings, err := loadConfig(cmd, opts, path)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logger.Warn("config", "warning", w)
	}

	// Create scanner
	s, err := scanner.New(cfg, append([]scanner.Option{scanner.WithLogger(logger)}, opts.scannerOptions...)...)
	if err != nil {
		return fmt.Errorf("failed to initialize scanner: %w", err)
	}

	if !s.ShouldRun() {
		logger.Info("no yarn.lock found, nothing to audit", "path", path)
		return nil
	}

	// Run scan
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()
	result, scanErr := s.Scan(ctx)

	// Generate report
	rep := reporter.Get(cfg.OutputFormat)
	output, err := rep.Report(result)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	// Write output
	if cfg.OutputFile != "" {
		if err := os.WriteFile(cfg.OutputFile, output, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", cfg.OutputFile)
	} else {
		fmt.Fprint(cmd.OutOrStdout(), string(output))
	}

	if opts.fixPreview && result.LockfilePreview != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "--- yarn.lock (patched preview, not written)\n%s\n", result.LockfilePreview)
	}

	if scanErr != nil {
		return &ExitError{Code: 2}
	}
	if result.Failed() && cfg.FailOnVulns {
		return &ExitError{Code: 1}
	}
	return nil
}
