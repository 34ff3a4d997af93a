package cli

import (
	"github.com/spf13/cobra"

	"policygate/internal/config"
)

func newAllCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Run every check and print an aggregate summary",
		Long: `Run the whole check catalogue (or the --checks subset) in catalogue order and
finish with "Summary: k/n checks passed". Checks run concurrently up to
--parallel but their output is never interleaved. Without --env, env-urls
validates every tier.

Output:
	Console output is controlled by --console-format (default: text).
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --out / --out-format: write an aggregate JSON array or NDJSON stream to a file
	- --no-console: suppress the console sink (use with --emit/--out for machine output)

	NDJSON mode emits one JSON object per line. Objects are lifecycle Events with a
	"type" field (run.started, check.started, check.result, check.error,
	check.finished, run.finished).

` + exitCodesHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaultAllEnvs(cmd, cfg)
			return runChecks(cmd, cfg, cfg.Checks.Selector)
		},
	}
	addSelectionFlags(cmd, cfg)
	return cmd
}
