package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/embedls/internal/lint"
)

const lintLong = "Run the configured lint rules over files and print one JSON line per diagnostic. " +
	"Exits with an error if any diagnostic has error severity."

// NewLintCmd creates the lint subcommand.
func NewLintCmd(root *rootOptions) *cobra.Command {
	var (
		phaseName string
		metrics   bool
	)

	cmd := &cobra.Command{
		Use:   "lint [files...]",
		Short: "Run lint rules over files, printing diagnostics as JSON lines",
		Long:  plainDocumentsNote(lintLong),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			phase, err := lint.ParsePhase(phaseName)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			logger := root.logger(cmd.ErrOrStderr())
			cfg, err := root.loadConfig(ctx, logger)
			if err != nil {
				return err
			}

			ws, err := newWorkspace(cfg, logger)
			if err != nil {
				cfg.Close()
				return err
			}
			defer ws.Close()

			errorCount, err := ws.lint(ctx, phase, args, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if metrics {
				if err := ws.writeMetrics(cmd.ErrOrStderr()); err != nil {
					return err
				}
			}
			if errorCount > 0 {
				return fmt.Errorf("%d error(s) found", errorCount)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&phaseName, "phase", "p", "syntax", "rule phase: syntax, semantic or format")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "print dispatch metrics to stderr")
	return cmd
}

// plainDocumentsNote appends the limits of the command line front end to a
// command description.
func plainDocumentsNote(desc string) string {
	return desc + "\n\n" +
		"Files are linted as plain documents: embedded blocks in .vue or .html files are not " +
		"split into virtual files, and no validator plugins run. ctx.language_id still " +
		"tells rules which language a file is in."
}
