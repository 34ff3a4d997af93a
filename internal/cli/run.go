package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"policygate/internal/checks"
	"policygate/internal/config"
	"policygate/internal/engine"
	"policygate/internal/flags"
)

// runChecks validates cfg, builds the selected checks and runs them through
// the engine. An empty ids selects the whole catalogue.
func runChecks(cmd *cobra.Command, cfg *config.Config, ids []string) error {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return exitWith(3)
	}
	selected, err := checks.Select(cfg, checks.NewEnv(cfg.Paths.Root), ids)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return exitWith(3)
	}

	eng := engine.NewEngine(cfg.Runtime.Parallel)
	eng.Stdout = cmd.OutOrStdout()
	eng.Stderr = cmd.ErrOrStderr()
	return exitWith(eng.Run(cmd.Context(), cfg, selected))
}

func addReportOnlyFlag(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().BoolVar(&cfg.Checks.ReportOnly, flags.FlagReportOnly, false, "bundle-budget: write the report but never fail")
}

func addEnvFlags(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVar(&cfg.Checks.EnvTier, flags.FlagEnv, "", "env-urls: validate a single tier (dev|staging|prod)")
	cmd.Flags().BoolVar(&cfg.Checks.AllEnvs, flags.FlagAll, false, "env-urls: validate every tier")
	cmd.Flags().BoolVar(&cfg.Checks.StrictPlaceholders, flags.FlagStrictPlaceholders, false, "env-urls: reject placeholder-looking URL values")
	cmd.Flags().BoolVar(&cfg.Checks.CheckEnvExamples, flags.FlagCheckEnvExamples, false, "env-urls: cross-check required variables against the example env files")
	cmd.MarkFlagsMutuallyExclusive(flags.FlagEnv, flags.FlagAll)
}

func addAuditFlags(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringVar(&cfg.Checks.AuditSource, flags.FlagAuditSource, cfg.Checks.AuditSource, "dependency-audit: vulnerability data source: npm|github")
	cmd.Flags().StringVar(&cfg.Checks.AuditCommand, flags.FlagAuditCommand, cfg.Checks.AuditCommand, "dependency-audit: scanner command for the npm source")
	cmd.Flags().StringVar(&cfg.Checks.Repo, flags.FlagRepo, "", "dependency-audit: OWNER/REPO for the github source")
}

// addSelectionFlags wires the flags shared by all and watch.
func addSelectionFlags(cmd *cobra.Command, cfg *config.Config) {
	cmd.Flags().StringSliceVar(&cfg.Checks.Selector, flags.FlagChecks, nil, "Check IDs to run (repeatable; comma-separated accepted; default: all)")
	addReportOnlyFlag(cmd, cfg)
	addEnvFlags(cmd, cfg)
	addAuditFlags(cmd, cfg)
}

// defaultAllEnvs makes catalogue runs validate every tier unless a tier was
// selected explicitly.
func defaultAllEnvs(cmd *cobra.Command, cfg *config.Config) {
	if !cmd.Flags().Changed(flags.FlagEnv) && !cmd.Flags().Changed(flags.FlagAll) {
		cfg.Checks.AllEnvs = true
	}
}
