package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/prunelab/internal/logparse"
)

var (
	logsDir      string
	logsGlob     string
	logsOutput   string
	logsPatterns string
	logsWorkers  int
)

// logsCmd parses a directory of experiment logs into one results CSV
var logsCmd = &cobra.Command{
	Use:   "logs [dir]",
	Short: "Parse experiment logs into a results CSV",
	Long: `Parse every log file in a directory into one row of a results table.

The experiment key comes from the file name
(<method>-<model>-<data>-<module>-<mode>-c<ratio>-pre<n>-post<n>.log) and the
metrics come from the log content. Rows without a final top-1 accuracy are
dropped; the rest are sorted by model, data, method, module, mode and
compression and written to pruning_experiment_results.csv in the log
directory.

Examples:
  # Parse ./logs
  prunelab logs

  # Parse another directory with extra metric patterns
  prunelab logs /scratch/run/logs --patterns patterns.toml

  # Write somewhere else
  prunelab logs logs --output results.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().StringVar(&logsDir, "dir", "", "log directory (default from config: logs)")
	logsCmd.Flags().StringVar(&logsGlob, "glob", "", "file glob within the directory (default *.log)")
	logsCmd.Flags().StringVarP(&logsOutput, "output", "o", "", "output CSV (default <dir>/pruning_experiment_results.csv)")
	logsCmd.Flags().StringVar(&logsPatterns, "patterns", "", "TOML file with extra or replacement metric patterns")
	logsCmd.Flags().IntVar(&logsWorkers, "workers", 0, "files read in parallel")
}

// runLogs handles the logs command
func runLogs(cmd *cobra.Command, args []string) error {
	lc := cfg.Logs
	flags := cmd.Flags()
	if flags.Changed("dir") {
		lc.Dir = logsDir
	}
	if len(args) == 1 {
		lc.Dir = args[0]
	}
	if flags.Changed("glob") {
		lc.Glob = logsGlob
	}
	if flags.Changed("output") {
		lc.Output = logsOutput
	}
	if flags.Changed("patterns") {
		lc.Patterns = logsPatterns
	}
	if flags.Changed("workers") {
		lc.Workers = logsWorkers
	}

	patterns, err := logparse.LoadPatterns(lc.Patterns)
	if err != nil {
		return err
	}

	parser, err := logparse.NewParser(logparse.Config{
		Dir:      lc.Dir,
		Glob:     lc.Glob,
		Patterns: patterns,
		Workers:  lc.Workers,
		Logger:   logger,
		Metrics:  runMetrics,
	})
	if err != nil {
		return err
	}

	results, err := parser.Parse(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to parse logs in %s: %w", lc.Dir, err)
	}

	output := lc.Output
	if output == "" {
		output = filepath.Join(lc.Dir, logparse.DefaultOutput)
	}
	if err := writeTable(cmd, output, results); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Results saved to %s\n", output)
	return nil
}
