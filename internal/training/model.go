// Package training runs the epoch loop of a classification model: one
// training pass with optional mixed precision, an evaluation pass with top-1
// and top-5 accuracy, and a per-epoch history table.
//
// Models, losses, optimizers and data loaders are supplied by the caller
// through the interfaces below. Package linear provides a small reference
// implementation of each.
package training

import "errors"

// Mode selects training or evaluation behaviour of a Model.
type Mode int

const (
	// ModeTrain records what Backward needs.
	ModeTrain Mode = iota
	// ModeEval disables gradient tracking.
	ModeEval
)

func (m Mode) String() string {
	switch m {
	case ModeTrain:
		return "train"
	case ModeEval:
		return "eval"
	}
	return "unknown"
}

var (
	// ErrNoGrad is returned by Backward when the model is in eval mode or no
	// forward pass has been recorded.
	ErrNoGrad = errors.New("no gradient tracking")

	// ErrEmptyDataset is returned when a loader reports no samples.
	ErrEmptyDataset = errors.New("empty dataset")
)

// Param is a flat trainable tensor and its accumulated gradient.
type Param struct {
	Name string
	Data []float64
	Grad []float64
}

// NewParam allocates a zeroed param of size n.
func NewParam(name string, n int) *Param {
	return &Param{Name: name, Data: make([]float64, n), Grad: make([]float64, n)}
}

// Model is a classifier producing one row of logits per input row.
type Model interface {
	SetMode(Mode)
	Forward(inputs [][]float64) ([][]float64, error)
	// Backward accumulates parameter gradients for the last Forward call
	// given the gradient of the loss with respect to the logits.
	Backward(gradLogits [][]float64) error
	Params() []*Param
}

// Loss computes the mean loss of a batch and its gradient with respect to
// the logits.
type Loss interface {
	Forward(logits [][]float64, targets []int) (float64, [][]float64, error)
}

// Optimizer updates params from their gradients.
type Optimizer interface {
	ZeroGrad()
	Step()
	LR() float64
	SetLR(lr float64)
}

// Scheduler adjusts an optimizer's learning rate once per epoch.
type Scheduler interface {
	Step()
}

// Batch is a set of samples and their class labels.
type Batch struct {
	Inputs  [][]float64
	Targets []int
}

// Size returns the number of samples in the batch.
func (b Batch) Size() int { return len(b.Targets) }

// Loader yields the batches of one pass over a dataset.
type Loader interface {
	// Len returns the number of samples in the dataset.
	Len() int
	// Batches returns the batches of one epoch.
	Batches() []Batch
}
