// Package sparsity summarizes per-module weight sparsity and FLOPs across
// pruning experiments.
//
// Each experiment directory holds a compression record file with one row per
// (module, param) pair. The package loads those files, aggregates them per
// module and pivots the results into module-by-experiment tables whose row
// order follows the first experiment.
package sparsity

import "errors"

// ParamWeight is the param name whose sparsity describes the module.
const ParamWeight = "weight"

// ErrMissingColumn indicates a record file without one of the required
// module, param, sparsity or flops fields.
var ErrMissingColumn = errors.New("missing required column")

// Record is one row of a compression record file.
//
// Sparsity is the fraction of the param's weights kept by the pruner.
type Record struct {
	Module   string
	Param    string
	Sparsity float64
	Flops    float64
}

// Experiment is the set of records loaded from one record file.
type Experiment struct {
	Name    string
	Path    string
	Records []Record
}
