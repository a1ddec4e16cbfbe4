package main

import (
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/embedls/internal/config"
	"github.com/dshills/embedls/internal/lint"
)

// NewWatchCmd creates the watch subcommand.
func NewWatchCmd(root *rootOptions) *cobra.Command {
	var (
		phaseName string
		debounce  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch [files...]",
		Short: "Lint files, then lint them again whenever the config file changes",
		Long:  plainDocumentsNote("Lint files like the lint command, then watch the config file and lint again after every change."),
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
			if cfg.Path == "" {
				cfg.Close()
				return errors.New("watch needs a config file")
			}

			ws, err := newWorkspace(cfg, logger)
			if err != nil {
				cfg.Close()
				return err
			}
			defer ws.Close()

			out := cmd.OutOrStdout()
			if _, err := ws.lint(ctx, phase, args, out); err != nil {
				return err
			}

			// Reload callbacks run inside Run, so they never race with Close.
			w, err := config.NewWatcher(cfg.Path, func(next *config.Config) {
				ws.swap(next)
				if _, err := ws.lint(ctx, phase, args, out); err != nil {
					logger.Warn("lint after reload failed", slog.Any("error", err))
				}
			},
				config.WithDebounce(debounce),
				config.WithWatchLogger(logger),
				config.WithLoadOptions(config.WithLogger(logger)))
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&phaseName, "phase", "p", "syntax", "rule phase: syntax, semantic or format")
	cmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "wait this long after a change before reloading")
	return cmd
}
