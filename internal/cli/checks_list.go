package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"policygate/internal/checks"
	"policygate/internal/config"
	"policygate/internal/gate"
)

func catalogue() ([]gate.Check, error) {
	return checks.Select(config.New(), checks.NewEnv("."), nil)
}

func newChecksCmd() *cobra.Command {
	var quiet bool

	checksCmd := &cobra.Command{
		Use:   "checks",
		Short: "List and describe checks",
		Long: `Discover which checks exist and what each one enforces.

Examples:
  # List all checks
  policygate checks list
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available checks",
		Long: `List every check in catalogue order.

Output:
  A vertical list of checks:
    ----------------------------------------
    CHECK: {ID}
    ----------------------------------------
    {TITLE}
    {DESCRIPTION}
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := catalogue()
			if err != nil {
				return err
			}
			for _, c := range all {
				if quiet {
					fmt.Fprintln(cmd.OutOrStdout(), c.ID())
				} else {
					printCheck(cmd.OutOrStdout(), c)
				}
			}
			return nil
		},
	}
	listCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print check IDs")

	showCmd := &cobra.Command{
		Use:   "show [check-id]",
		Short: "Show details of a specific check",
		Long: `Show details of a specific check by its ID.

Examples:
  policygate checks show secret-scan
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := catalogue()
			if err != nil {
				return err
			}
			id := strings.ToLower(strings.TrimSpace(args[0]))
			for _, c := range all {
				if c.ID() == id {
					printCheck(cmd.OutOrStdout(), c)
					return nil
				}
			}
			return fmt.Errorf("check not found: %s", args[0])
		},
	}

	checksCmd.AddCommand(listCmd, showCmd)
	return checksCmd
}

func printCheck(w io.Writer, c gate.Check) {
	bold := color.New(color.Bold)
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "CHECK: %s\n", c.ID())
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintln(w, c.Title())
	fmt.Fprintln(w, c.Description())
	fmt.Fprintln(w)
}
