// Package logparse turns a directory of pruning experiment logs into a
// single results table.
//
// Each log file contributes one row: the experiment key parsed from its
// name (see package experiment) plus metrics pulled out of its content by
// regular expressions. Rows without a final top-1 accuracy are dropped and
// the rest are sorted by model, data, method, module, mode and compression.
package logparse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/prunelab/internal/experiment"
	"github.com/fyrsmithlabs/prunelab/internal/logging"
	"github.com/fyrsmithlabs/prunelab/internal/metrics"
	"github.com/fyrsmithlabs/prunelab/internal/table"
)

// DefaultGlob matches log files in the log directory.
const DefaultGlob = "*.log"

// DefaultOutput is the results file name written into the log directory.
const DefaultOutput = "pruning_experiment_results.csv"

const defaultWorkers = 4

// SortColumns is the row order of the results table.
var SortColumns = []string{
	experiment.ColModel,
	experiment.ColData,
	experiment.ColMethod,
	experiment.ColModule,
	experiment.ColMode,
	experiment.ColCompression,
}

// Config configures a Parser.
type Config struct {
	Dir      string
	Glob     string
	Patterns Patterns
	Workers  int
	Logger   *logging.Logger
	Metrics  *metrics.Metrics
}

// Parser reads log files and builds the results table.
type Parser struct {
	dir      string
	glob     string
	patterns Patterns
	workers  int
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// NewParser creates a Parser. Unset fields take their defaults.
func NewParser(cfg Config) (*Parser, error) {
	if cfg.Dir == "" {
		return nil, errors.New("log directory is required")
	}
	if cfg.Glob == "" {
		cfg.Glob = DefaultGlob
	}
	if _, err := filepath.Match(cfg.Glob, ""); err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", cfg.Glob, err)
	}
	if cfg.Patterns == nil {
		cfg.Patterns = DefaultPatterns()
	}
	patterns := make(Patterns, len(cfg.Patterns))
	for i, pt := range cfg.Patterns {
		if pt.re == nil {
			compiled, err := NewPattern(pt.Name, pt.Expr)
			if err != nil {
				return nil, err
			}
			pt = compiled
		}
		patterns[i] = pt
	}
	cfg.Patterns = patterns
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	return &Parser{
		dir:      cfg.Dir,
		glob:     cfg.Glob,
		patterns: cfg.Patterns,
		workers:  cfg.Workers,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}, nil
}

// Columns returns the output columns: the key columns followed by the
// default metric columns and then any additional pattern names in order.
func (p *Parser) Columns() []string {
	cols := append([]string(nil), experiment.Columns...)
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c] = true
	}
	for _, name := range append(DefaultPatterns().Names(), p.patterns.Names()...) {
		if !seen[name] {
			seen[name] = true
			cols = append(cols, name)
		}
	}
	return cols
}

// Files lists the files matching the glob in the log directory, sorted.
func (p *Parser) Files() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(p.dir, p.glob))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", p.dir, err)
	}
	out := files[:0]
	for _, f := range files {
		if info, err := os.Stat(f); err == nil && info.Mode().IsRegular() {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Parse reads every log file and returns the filtered, sorted results.
// Files that cannot be parsed are logged and skipped. The row order does not
// depend on the order in which files finish reading.
func (p *Parser) Parse(ctx context.Context) (*table.Table, error) {
	files, err := p.Files()
	if err != nil {
		return nil, err
	}

	p.logger.Debug(ctx, "parsing log files",
		zap.String("dir", p.dir),
		zap.Int("files", len(files)),
		zap.Int("workers", p.workers))

	rows := make([]map[string]table.Cell, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, err := p.parseFile(file)
			if err != nil {
				p.logger.Warn(ctx, "skipping log file",
					zap.String("file", file),
					zap.Error(err))
				p.metrics.RecordSkip("logs", skipReason(err))
				return nil
			}
			p.metrics.RecordFile("logs")
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := table.New(p.Columns()...)
	for _, row := range rows {
		if row != nil {
			results.Append(row)
		}
	}

	parsed := results.Len()
	results = results.DropMissing(MetricFinalTop1Accuracy)
	results.SortBy(SortColumns...)

	p.logger.Info(ctx, "parsed log files",
		zap.Int("files", len(files)),
		zap.Int("parsed", parsed),
		zap.Int("rows", results.Len()))

	return results, nil
}

func (p *Parser) parseFile(path string) (map[string]table.Cell, error) {
	key, err := experiment.ParseFilename(path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}

	row := make(map[string]table.Cell)
	for col, v := range key.Fields() {
		row[col] = table.Str(v)
	}
	for name, v := range ExtractMetrics(string(content), p.patterns) {
		row[name] = table.Str(v)
	}
	return row, nil
}

func skipReason(err error) string {
	if errors.Is(err, experiment.ErrTooFewFields) {
		return "filename"
	}
	return "read"
}
