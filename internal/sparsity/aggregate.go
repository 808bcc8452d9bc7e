package sparsity

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/prunelab/internal/experiment"
	"github.com/fyrsmithlabs/prunelab/internal/logging"
	"github.com/fyrsmithlabs/prunelab/internal/metrics"
	"github.com/fyrsmithlabs/prunelab/internal/table"
)

// Output file names.
const (
	SparsityFile    = "weight_sparsity_summary.csv"
	ActualFlopsFile = "actual_flops_summary.csv"
	TotalFlopsFile  = "total_flops_summary.csv"
)

// ColExperimentModule is the key column of every summary table.
const ColExperimentModule = "module"

// Summary holds the three module-by-experiment tables.
type Summary struct {
	Sparsity    *table.Table
	ActualFlops *table.Table
	TotalFlops  *table.Table
}

// Load reads each record file into an Experiment named after its directory.
// Files that fail to load are logged and skipped. A later file with the
// same experiment name replaces the earlier one at the same position.
func Load(ctx context.Context, paths []string, logger *logging.Logger, m *metrics.Metrics) ([]Experiment, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	var experiments []Experiment
	pos := make(map[string]int)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := experiment.NameFromDir(filepath.Dir(path))
		records, err := LoadRecords(path)
		if err != nil {
			logger.Warn(logging.WithExperiment(ctx, name), "skipping record file",
				zap.String("file", path),
				zap.Error(err))
			m.RecordSkip("stats", loadFailure(err))
			continue
		}
		m.RecordFile("stats")

		logger.Debug(logging.WithExperiment(ctx, name), "loaded record file",
			zap.String("file", path),
			zap.Int("records", len(records)))

		exp := Experiment{Name: name, Path: path, Records: records}
		if i, ok := pos[name]; ok {
			logger.Warn(logging.WithExperiment(ctx, name), "duplicate experiment name, replacing earlier file",
				zap.String("previous", experiments[i].Path),
				zap.String("file", path))
			experiments[i] = exp
			continue
		}
		pos[name] = len(experiments)
		experiments = append(experiments, exp)
	}
	return experiments, nil
}

func loadFailure(err error) string {
	switch {
	case errors.Is(err, ErrMissingColumn):
		return "missing_column"
	case errors.Is(err, ErrUnsupportedFormat):
		return "format"
	case errors.Is(err, os.ErrNotExist), errors.Is(err, os.ErrPermission):
		return "read"
	}
	return "decode"
}

// moduleStats is the aggregate of one experiment.
type moduleStats struct {
	// weightOrder lists the module of every weight row, in record order.
	weightOrder []string
	sparsity    map[string]float64
	total       map[string]float64
	actual      map[string]float64
}

func aggregateRecords(records []Record) moduleStats {
	s := moduleStats{
		sparsity: make(map[string]float64),
		total:    make(map[string]float64),
		actual:   make(map[string]float64),
	}
	for _, r := range records {
		s.total[r.Module] += r.Flops
		if r.Param == ParamWeight {
			// every weight row is a pivot row; the last sparsity wins
			s.weightOrder = append(s.weightOrder, r.Module)
			s.sparsity[r.Module] = r.Sparsity
		}
	}
	for module, total := range s.total {
		if sp, ok := s.sparsity[module]; ok {
			s.actual[module] = math.Trunc(total * sp)
		} else {
			s.actual[module] = total
		}
	}
	return s
}

// Aggregate builds the summary tables.
//
// Rows follow the weight-row module order of the first experiment that has
// weight rows. The sparsity table has a column per experiment with weight
// rows; the FLOPs tables have a column per experiment. Modules an experiment
// lacks are missing. When no experiment has weight rows the FLOPs tables
// list the sorted union of modules and the sparsity table is empty.
func Aggregate(experiments []Experiment) Summary {
	var (
		names       []string
		withWeights []string
		stats       = make(map[string]moduleStats)
	)
	for _, exp := range experiments {
		if _, dup := stats[exp.Name]; !dup {
			names = append(names, exp.Name)
		}
		stats[exp.Name] = aggregateRecords(exp.Records)
	}
	for _, name := range names {
		if len(stats[name].weightOrder) > 0 {
			withWeights = append(withWeights, name)
		}
	}

	sparsity := make(map[string]map[string]table.Cell)
	actual := make(map[string]map[string]table.Cell)
	total := make(map[string]map[string]table.Cell)
	for _, name := range names {
		s := stats[name]
		sparsity[name] = cells(s.sparsity)
		actual[name] = cells(s.actual)
		total[name] = cells(s.total)
	}

	if len(withWeights) == 0 {
		order := unionSorted(stats)
		return Summary{
			Sparsity:    table.New(ColExperimentModule),
			ActualFlops: table.Pivot(ColExperimentModule, order, names, actual),
			TotalFlops:  table.Pivot(ColExperimentModule, order, names, total),
		}
	}

	order := stats[withWeights[0]].weightOrder
	return Summary{
		Sparsity:    table.Pivot(ColExperimentModule, order, withWeights, sparsity),
		ActualFlops: table.Pivot(ColExperimentModule, order, names, actual),
		TotalFlops:  table.Pivot(ColExperimentModule, order, names, total),
	}
}

func cells(values map[string]float64) map[string]table.Cell {
	out := make(map[string]table.Cell, len(values))
	for k, v := range values {
		out[k] = table.Num(v)
	}
	return out
}

func unionSorted(stats map[string]moduleStats) []string {
	seen := make(map[string]bool)
	var modules []string
	for _, s := range stats {
		for m := range s.total {
			if !seen[m] {
				seen[m] = true
				modules = append(modules, m)
			}
		}
	}
	sort.Strings(modules)
	return modules
}
