package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"policygate/internal/checks"
	"policygate/internal/config"
	"policygate/internal/engine"
	"policygate/internal/flags"
	"policygate/internal/log"
	"policygate/internal/watch"
)

func newWatchCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run checks whenever files change",
		Long: `Run the selected checks once, then again after every burst of file changes
under --root. Dependency, build, generated and report directories are ignored.
Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaultAllEnvs(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return exitWith(3)
			}
			selected, err := checks.Select(cfg, checks.NewEnv(cfg.Paths.Root), cfg.Checks.Selector)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return exitWith(3)
			}

			w := watch.New(cfg.Paths.Root, cfg.Runtime.Debounce)
			if cfg.Output.Out != "" {
				if rel, err := filepath.Rel(cfg.Paths.Root, cfg.Resolve(cfg.Output.Out)); err == nil {
					w.IgnoreFiles = append(w.IgnoreFiles, rel)
				}
			}

			eng := engine.NewEngine(cfg.Runtime.Parallel)
			eng.Stdout = cmd.OutOrStdout()
			eng.Stderr = cmd.ErrOrStderr()

			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl-C to stop)\n", cfg.Paths.Root)
			err = w.Run(cmd.Context(), func(ctx context.Context) {
				code := eng.Run(ctx, cfg, selected)
				log.Debug("watch run finished", "exit_code", code)
			})
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return exitWith(3)
			}
			return nil
		},
	}
	addSelectionFlags(cmd, cfg)
	cmd.Flags().DurationVar(&cfg.Runtime.Debounce, flags.FlagDebounce, cfg.Runtime.Debounce, "Quiet period after the last change before re-running")
	return cmd
}
