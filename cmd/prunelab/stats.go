package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/prunelab/internal/sparsity"
	"github.com/fyrsmithlabs/prunelab/internal/table"
)

var (
	statsBaseDir    string
	statsGlob       string
	statsRecordFile string
	statsOutDir     string
)

// statsCmd pivots compression records into sparsity and FLOPs summaries
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize per-module sparsity and FLOPs across experiments",
	Long: `Load the compression record file of every matching experiment
directory and write three module-by-experiment tables:

  weight_sparsity_summary.csv  fraction of weights kept per module
  actual_flops_summary.csv     FLOPs after applying the weight sparsity
  total_flops_summary.csv      FLOPs before pruning

Rows follow the module order of the first experiment. Record files may be
CSV, JSON or YAML with module, param, sparsity and flops fields.

Examples:
  # Default layout under Results/data/singleshot
  prunelab stats

  # Another compression ratio, JSON records
  prunelab stats --glob 'singleshot/*-vgg16-cifar10-singleshot-lottery-c1-*' --record-file compression.json`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsBaseDir, "base-dir", "", "results base directory (default from config: Results/data)")
	statsCmd.Flags().StringVar(&statsGlob, "glob", "", "experiment directory glob under the base directory")
	statsCmd.Flags().StringVar(&statsRecordFile, "record-file", "", "record file name in each experiment directory")
	statsCmd.Flags().StringVar(&statsOutDir, "out-dir", "", "directory for the summary CSVs (default .)")
}

// runStats handles the stats command
func runStats(cmd *cobra.Command, _ []string) error {
	sc := cfg.Stats
	flags := cmd.Flags()
	if flags.Changed("base-dir") {
		sc.BaseDir = statsBaseDir
	}
	if flags.Changed("glob") {
		sc.Glob = statsGlob
	}
	if flags.Changed("record-file") {
		sc.RecordFile = statsRecordFile
	}
	if flags.Changed("out-dir") {
		sc.OutDir = statsOutDir
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	files, err := sparsity.Discover(sc.BaseDir, sc.Glob, sc.RecordFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Found %d matching files\n", len(files))

	experiments, err := sparsity.Load(ctx, files, logger, runMetrics)
	if err != nil {
		return err
	}
	summary := sparsity.Aggregate(experiments)

	for _, s := range []struct {
		label string
		file  string
		table *table.Table
	}{
		{"sparsity", sparsity.SparsityFile, summary.Sparsity},
		{"actual FLOPs", sparsity.ActualFlopsFile, summary.ActualFlops},
		{"total FLOPs", sparsity.TotalFlopsFile, summary.TotalFlops},
	} {
		if s.table.Empty() {
			fmt.Fprintf(out, "No %s results to display\n", s.label)
			logger.Warn(ctx, "empty summary, not written", zap.String("file", s.file))
			continue
		}
		path := filepath.Join(sc.OutDir, s.file)
		if err := writeTable(cmd, path, s.table); err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved %s results to %s\n", s.label, path)
	}
	return nil
}
