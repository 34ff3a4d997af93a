package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"policygate/internal/config"
	"policygate/internal/flags"
	"policygate/internal/log"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

const exitCodesHelp = `Exit codes:
	0 = every check passed
	1 = policy violations
	2 = partial failure (some checks could not run)
	3 = fatal error (configuration error, no check ran)`

// exitError carries a non-zero process exit code out of a RunE.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func exitWith(code int) error {
	if code == 0 {
		return nil
	}
	return &exitError{code: code}
}

func newRootCmd() *cobra.Command {
	cfg := config.New()

	rootCmd := &cobra.Command{
		Use:   "policygate",
		Short: "Enforce repository quality and security policies as CI gates",
		Long: `policygate evaluates a repository against declarative policies and reports
PASS/FAIL/WARN per item with an exit code suitable for CI.

Each check is independent and reads its thresholds from the policy document
(--policy, JSON or YAML). Checks never modify the repository; bundle-budget
and dependency-audit write JSON reports under reports/.

Examples:
	# Run a single gate
	policygate any-budget

	# Validate the production environment URLs
	policygate env-urls --env=prod

	# Run the whole catalogue with an aggregate summary
	policygate all

	# Re-run gates on file changes
	policygate watch --checks any-budget,component-size

	# List checks
	policygate checks list

` + exitCodesHelp,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetVerbose(cfg.Runtime.Verbose)
		},
	}

	addGlobalFlags(rootCmd, cfg)

	for _, cmd := range newCheckCmds(cfg) {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(newAllCmd(cfg))
	rootCmd.AddCommand(newWatchCmd(cfg))
	rootCmd.AddCommand(newChecksCmd())
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	return rootCmd
}

func addGlobalFlags(cmd *cobra.Command, cfg *config.Config) {
	// MAINTAINER NOTE: If you add/change/remove any flag here, keep
	// config.Config and its Validate in sync.
	pf := cmd.PersistentFlags()

	// Inputs
	pf.StringVar(&cfg.Paths.Root, flags.FlagRoot, cfg.Paths.Root, "Repository root; relative paths below resolve against it")
	pf.StringVar(&cfg.Paths.Policy, flags.FlagPolicy, cfg.Paths.Policy, "Policy document (JSON, or YAML by extension)")
	pf.StringVar(&cfg.Paths.EnvMatrix, flags.FlagEnvMatrix, cfg.Paths.EnvMatrix, "Environment matrix document")
	pf.StringVar(&cfg.Paths.SecretAllowlist, flags.FlagSecretAllowlist, cfg.Paths.SecretAllowlist, "Secret-scan allowlist document")
	pf.StringVar(&cfg.Paths.BuildDir, flags.FlagBuildDir, cfg.Paths.BuildDir, "Bundler output directory holding hashed chunks")
	pf.StringVar(&cfg.Paths.CoverageSummary, flags.FlagCoverageSummary, cfg.Paths.CoverageSummary, "Backend coverage json-summary")
	pf.StringVar(&cfg.Paths.ClientEnvExample, flags.FlagClientEnvExample, cfg.Paths.ClientEnvExample, "Client example env file")
	pf.StringVar(&cfg.Paths.ServerEnvExample, flags.FlagServerEnvExample, cfg.Paths.ServerEnvExample, "Server example env file")
	pf.StringVar(&cfg.Paths.BundleReport, flags.FlagBundleReport, cfg.Paths.BundleReport, "Bundle budget report destination")
	pf.StringVar(&cfg.Paths.AuditReport, flags.FlagAuditReport, cfg.Paths.AuditReport, "Dependency audit report destination")

	// Output
	pf.StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, cfg.Output.ConsoleFormat, "Console output format: text|json|ndjson")
	pf.StringSliceVar(&cfg.Output.ConsoleFilterStatus, flags.FlagConsoleFilterStatus, nil, "Filter console output by status (PASS, FAIL, WARN, ERROR). Comma-separated.")
	pf.StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	pf.StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	pf.StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	pf.BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out)")
	pf.BoolVar(&cfg.Output.NoColor, flags.FlagNoColor, false, "Disable coloured status prefixes")

	// Runtime
	pf.IntVar(&cfg.Runtime.Parallel, flags.FlagParallel, cfg.Runtime.Parallel, "Checks run concurrently by all/watch")
	pf.BoolVar(&cfg.Runtime.Verbose, flags.FlagVerbose, false, "Enable debug diagnostics on stderr")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

// run executes the command tree and maps the outcome to an exit code.
// Flag and argument errors are configuration errors (3).
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 3
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
