package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/embedls/internal/lint"
)

// NewRulesCmd creates the rules subcommand.
func NewRulesCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List configured rules in the order they run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := root.logger(cmd.ErrOrStderr())
			cfg, err := root.loadConfig(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer cfg.Close()

			out := cmd.OutOrStdout()
			cfg.Lint.Rules.Each(func(name string, _ lint.Rule) bool {
				severity := "default"
				if sev, ok := cfg.Lint.Severity(name); ok {
					severity = sev.String()
				}
				fmt.Fprintf(out, "%s\t%s\n", name, severity)
				return true
			})
			return nil
		},
	}
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "embedls %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
