package training

import (
	"errors"
	"fmt"
)

// fakeModel returns its inputs as logits and sums the logit gradient into a
// single param.
type fakeModel struct {
	mode      Mode
	param     *Param
	forwards  int
	backwards int
	forwardFn func([][]float64) ([][]float64, error)
}

func newFakeModel() *fakeModel {
	return &fakeModel{param: NewParam("w", 1)}
}

func (m *fakeModel) SetMode(mode Mode) { m.mode = mode }

func (m *fakeModel) Forward(inputs [][]float64) ([][]float64, error) {
	m.forwards++
	if m.forwardFn != nil {
		return m.forwardFn(inputs)
	}
	out := make([][]float64, len(inputs))
	for i, row := range inputs {
		out[i] = append([]float64(nil), row...)
	}
	return out, nil
}

func (m *fakeModel) Backward(grad [][]float64) error {
	if m.mode != ModeTrain {
		return ErrNoGrad
	}
	m.backwards++
	for _, row := range grad {
		for _, g := range row {
			m.param.Grad[0] += g
		}
	}
	return nil
}

func (m *fakeModel) Params() []*Param { return []*Param{m.param} }

// fakeLoss reports the first logit of the first row as the batch loss and a
// gradient of ones.
type fakeLoss struct{}

func (fakeLoss) Forward(logits [][]float64, targets []int) (float64, [][]float64, error) {
	if len(logits) != len(targets) {
		return 0, nil, fmt.Errorf("got %d rows for %d targets", len(logits), len(targets))
	}
	grad := make([][]float64, len(logits))
	for i, row := range logits {
		grad[i] = make([]float64, len(row))
		for j := range row {
			grad[i][j] = 1
		}
	}
	return logits[0][0], grad, nil
}

type fakeOptimizer struct {
	lr     float64
	steps  int
	zeroed int
	params []*Param
}

func (o *fakeOptimizer) ZeroGrad() {
	o.zeroed++
	for _, p := range o.params {
		for i := range p.Grad {
			p.Grad[i] = 0
		}
	}
}
func (o *fakeOptimizer) Step()            { o.steps++ }
func (o *fakeOptimizer) LR() float64      { return o.lr }
func (o *fakeOptimizer) SetLR(lr float64) { o.lr = lr }

type sliceLoader struct {
	n       int
	batches []Batch
}

func (l sliceLoader) Len() int         { return l.n }
func (l sliceLoader) Batches() []Batch { return l.batches }

func loaderOf(batches ...Batch) sliceLoader {
	n := 0
	for _, b := range batches {
		n += b.Size()
	}
	return sliceLoader{n: n, batches: batches}
}

type countingScheduler struct{ steps int }

func (s *countingScheduler) Step() { s.steps++ }

var errForward = errors.New("forward failed")
