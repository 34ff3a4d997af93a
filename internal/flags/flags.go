package flags

// Package flags defines canonical CLI flag names shared across the CLI and
// the watch/all runners. Keeping these as constants helps avoid drift between
// Cobra flag wiring and other code paths that need to reference flags.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Paths.Root, flags.FlagRoot, ".", "...")
//	arg := "--" + flags.FlagRoot
const (
	// Inputs
	FlagRoot             = "root"
	FlagPolicy           = "policy"
	FlagEnvMatrix        = "env-matrix"
	FlagSecretAllowlist  = "secret-allowlist"
	FlagBuildDir         = "build-dir"
	FlagCoverageSummary  = "coverage-summary"
	FlagClientEnvExample = "client-env-example"
	FlagServerEnvExample = "server-env-example"

	// Reports
	FlagBundleReport = "bundle-report"
	FlagAuditReport  = "audit-report"

	// Check-specific
	FlagReportOnly         = "report-only"
	FlagEnv                = "env"
	FlagAll                = "all"
	FlagStrictPlaceholders = "strict-placeholders"
	FlagCheckEnvExamples   = "check-env-examples"
	FlagAuditSource        = "audit-source"
	FlagAuditCommand       = "audit-command"
	FlagRepo               = "repo"
	FlagChecks             = "checks"

	// Output
	FlagConsoleFormat       = "console-format"
	FlagConsoleFilterStatus = "console-filter-status"
	FlagEmit                = "emit"
	FlagOut                 = "out"
	FlagOutFormat           = "out-format"
	FlagNoConsole           = "no-console"
	FlagNoColor             = "no-color"

	// Runtime
	FlagParallel = "parallel"
	FlagDebounce = "debounce"
	FlagVerbose  = "verbose"
)
