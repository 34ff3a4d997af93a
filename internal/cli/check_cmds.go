package cli

import (
	"github.com/spf13/cobra"

	"policygate/internal/checks"
	"policygate/internal/config"
	"policygate/internal/flags"
)

type checkCmdDef struct {
	id    string
	short string
	long  string
	// extra wires check-specific flags.
	extra func(cmd *cobra.Command, cfg *config.Config)
}

var checkCmdDefs = []checkCmdDef{
	{
		id:    checks.AnyBudgetID,
		short: "Enforce the any-usage budget",
		long: `Count word-boundary "any" type markers in src/ and convex/ (.ts, .tsx) and
compare them with anyBudget.maxTotal and the optional anyBudget.perFile budgets.
Tests, declaration files, generated code and import snapshots are excluded.`,
	},
	{
		id:    checks.FeatureFileSizeID,
		short: "Enforce the feature file line limit",
		long: `Count lines of feature code (src/features) and backend functions (convex)
and fail files above featureFileSize.maxLines. Files listed in
featureFileSize.legacyAllowlist only warn; a listed file that is back under the
limit warns until it is removed from the list.`,
	},
	{
		id:    checks.ComponentSizeID,
		short: "Enforce UI component size tiers",
		long: `Count lines of UI components (src/components, excluding src/components/ui)
and warn above componentSize.warnLines and fail above componentSize.maxLines.`,
	},
	{
		id:    checks.BundleBudgetID,
		short: "Enforce gzip size budgets of the build output",
		long: `Locate the entry (index-*.js), vendor (vendor-*.js) and styles (index-*.css)
chunks in the build output, gzip each at level 9 and compare the size in KB
with bundleBudget.chunks. The report is written to reports/bundle-budget.json
on every run. With --report-only the check never fails.`,
		extra: addReportOnlyFlag,
	},
	{
		id:    checks.BackendCoverageID,
		short: "Enforce backend coverage thresholds",
		long: `Read the backend coverage json-summary and fail when total line or function
coverage is below the thresholds of backendCoverage.activePhase.`,
	},
	{
		id:    checks.SecretScanID,
		short: "Scan tracked files for secrets",
		long: `Match every git-tracked file (except build output, generated code, reports and
dependencies) against the credential catalogue. Any match not covered by the
allowlist fails; matched text is always redacted. Allowlist entries that
suppress nothing warn.`,
	},
	{
		id:    checks.EnvURLsID,
		short: "Validate environment URL topology",
		long: `Validate the environment matrix for one tier (--env) or every tier (--all):
required fields present, absolute URLs, redirect path and origin, webhook and
action URLs derived from the site URL, and https outside dev.

Examples:
	policygate env-urls --env=prod
	policygate env-urls --all --strict-placeholders --check-env-examples`,
		extra: func(cmd *cobra.Command, cfg *config.Config) {
			addEnvFlags(cmd, cfg)
			cmd.MarkFlagsOneRequired(flags.FlagEnv, flags.FlagAll)
		},
	},
	{
		id:    checks.DependencyAuditID,
		short: "Fail on high or critical vulnerabilities",
		long: `Run the vulnerability scanner (default: npm audit --json, or open Dependabot
alerts with --audit-source=github --repo OWNER/REPO). High and critical
findings fail; moderate and low findings are accepted with a
compensating-control note. The report is written to
reports/dependency-audit.json on every run.

GitHub token sources (in order): GITHUB_TOKEN, GH_TOKEN, gh auth token.`,
		extra: addAuditFlags,
	},
}

func newCheckCmds(cfg *config.Config) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(checkCmdDefs))
	for _, def := range checkCmdDefs {
		def := def
		cmd := &cobra.Command{
			Use:   def.id,
			Short: def.short,
			Long:  def.long + "\n\n" + exitCodesHelp,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runChecks(cmd, cfg, []string{def.id})
			},
		}
		if def.extra != nil {
			def.extra(cmd, cfg)
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}
