// Package cmd implements the CLI commands for biocpipe using Cobra.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/biocpipe/core/config"
	"github.com/gaurav-prasanna/biocpipe/core/observability"
	"github.com/gaurav-prasanna/biocpipe/core/progress"
)

// Persistent flag variables.
var (
	flagConfig    string
	flagLogLevel  string
	flagLogFormat string
	flagNoColor   bool
)

// Per-run state set up by PersistentPreRunE.
var (
	cfg    config.Config
	logger = zerolog.Nop()
	ui     *UI
)

var rootCmd = &cobra.Command{
	Use:   "biocpipe",
	Short: "biocpipe — acquire and normalize BioC biomedical full texts",
	Long: `biocpipe downloads BioC JSON documents, either as bulk tar.gz archives or
one identifier at a time, and normalizes them into sentence- or paragraph-level
records sharded into numbered JSON files.

Usage:
  biocpipe fetch <ids-file> <output> [flags]
  biocpipe archive <filename> <save-dir> <extract-dir> [flags]
  biocpipe split <input-dir> <output-dir> [flags]`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format (console or json)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
}

// setup loads configuration and builds the logger for the command.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		loaded.Log.Level = flagLogLevel
	}
	if cmd.Flags().Changed("log-format") {
		loaded.Log.Format = flagLogFormat
	}
	cfg = loaded

	if flagNoColor {
		color.NoColor = true
	}

	var runID string
	logger, runID = observability.WithRun(observability.NewLogger(observability.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}))
	logger = logger.With().Str("command", cmd.Name()).Logger()
	logger.Debug().Str("run_id", runID).Str("config", flagConfig).Msg("configuration loaded")

	ui = NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr())
	return nil
}

// reporter returns the progress reporter for this run. Bars are hidden
// when logs are JSON so stderr stays machine readable.
func reporter() *progress.Reporter {
	if cfg.Log.Format == "json" {
		return progress.Silent()
	}
	return progress.New()
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context; in-flight work finishes and outputs are closed cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
