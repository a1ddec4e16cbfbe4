package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dshills/embedls/internal/config"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

// NewRootCmd creates the embedls command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "embedls",
		Short:         "embedls - lint and feature dispatch for embedded-language documents",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to embedls.toml or embedls.yaml (default: search the working directory)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(NewLintCmd(opts))
	root.AddCommand(NewWatchCmd(opts))
	root.AddCommand(NewRulesCmd(opts))
	root.AddCommand(NewVersionCmd())
	return root
}

// logger writes text logs to the command's stderr.
func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig loads the configured file, the first default file in the
// working directory, or an empty config.
func (o *rootOptions) loadConfig(ctx context.Context, logger *slog.Logger) (*config.Config, error) {
	path := o.configPath
	if path == "" {
		path = config.Find(config.OSFS{}, ".")
	}
	if path == "" {
		logger.Debug("no config file found, running without rules")
		return config.Empty(), nil
	}

	cfg, err := config.Load(ctx, path, config.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded",
		slog.String("path", path),
		slog.Int("rules", cfg.Lint.Rules.Len()))
	return cfg, nil
}
