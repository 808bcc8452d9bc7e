// Package main implements the prunelab CLI: summaries of pruning experiment
// logs and compression records, and a reference train/eval loop.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/prunelab/internal/config"
	"github.com/fyrsmithlabs/prunelab/internal/logging"
	"github.com/fyrsmithlabs/prunelab/internal/metrics"
	"github.com/fyrsmithlabs/prunelab/internal/table"
)

var (
	// configPath is an explicit config file; empty uses the default location
	configPath string
	// logLevel and logFormat override the logging section when set
	logLevel  string
	logFormat string
	// metricsTextfile overrides metrics.textfile when set
	metricsTextfile string
	// naRep overrides output.na_rep when set
	naRep string
	// version information
	version = "dev"

	// Per-invocation state, set up before each command runs.
	cfg        *config.Config
	logger     *logging.Logger
	runMetrics *metrics.Metrics
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "prunelab",
	Short: "Summarize pruning experiments and run reference training",
	Long: `prunelab collects results of neural network pruning experiments.

It parses experiment log directories into a results CSV, pivots per-module
compression records into sparsity and FLOPs summaries, and runs a reference
train/eval loop that records per-epoch metrics.

Configuration is read from ~/.config/prunelab/config.yaml (or --config) and
PRUNELAB_* environment variables; flags override both.`,
	Version:            version,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/prunelab/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json")
	rootCmd.PersistentFlags().StringVar(&metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")
	rootCmd.PersistentFlags().StringVar(&naRep, "na-rep", "", "text written for missing values in CSV output")
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(trainCmd)
}

// setup loads configuration and attaches a logger and run id to the command
// context.
func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.LoadWithFile(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.Logging.Level = logLevel
	}
	if flags.Changed("log-format") {
		c.Logging.Format = logFormat
	}
	if flags.Changed("metrics-textfile") {
		c.Metrics.Textfile = metricsTextfile
	}
	if flags.Changed("na-rep") {
		c.Output.NARep = naRep
	}

	level, err := logging.LevelFromString(c.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.Logging.Level, err)
	}
	lc := logging.NewDefaultConfig()
	lc.Level = level
	lc.Format = c.Logging.Format
	lc.Caller = c.Logging.Caller
	lc.Sampling = logging.Sampling{
		Tick:       c.Logging.SampleTick.Duration(),
		Initial:    c.Logging.SampleInitial,
		Thereafter: c.Logging.SampleThereafter,
	}
	l, err := logging.New(lc, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	ctx := logging.WithRunID(cmd.Context(), uuid.NewString())
	ctx = logging.WithCommand(ctx, cmd.Name())
	ctx = logging.WithLogger(ctx, l)
	cmd.SetContext(ctx)

	cfg, logger, runMetrics = c, l, metrics.New()
	return nil
}

// teardown writes the metrics textfile and flushes the logger.
func teardown(cmd *cobra.Command, _ []string) error {
	if err := runMetrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		logger.Error(cmd.Context(), "failed to write metrics", zap.Error(err))
		return err
	}
	return logger.Sync()
}

// writeTable writes t to path and prints a preview of its first rows.
func writeTable(cmd *cobra.Command, path string, t *table.Table) error {
	if err := table.WriteCSVFile(path, t, cfg.Output.NARep); err != nil {
		return err
	}
	runMetrics.RecordRows(path, t.Len())
	logger.Info(cmd.Context(), "wrote table",
		zap.String("path", path),
		zap.Int("rows", t.Len()),
		zap.Int("columns", len(t.Columns)))
	preview(cmd.OutOrStdout(), t)
	return nil
}

func preview(w io.Writer, t *table.Table) {
	if cfg.Output.Preview == 0 {
		return
	}
	fmt.Fprintln(w, table.Render(t, cfg.Output.Preview))
}
