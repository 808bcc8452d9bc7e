// Package linear is a small dense backend for package training: a
// two-layer perceptron, softmax cross-entropy and SGD with momentum, all on
// gonum.
package linear

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/fyrsmithlabs/prunelab/internal/training"
)

// MLP is Linear(in, hidden) -> ReLU -> Linear(hidden, out).
//
// Weights are stored row-major as (out, in) like the usual linear layer so
// the param slices back gonum matrices directly.
type MLP struct {
	in, hidden, out int
	mode            training.Mode

	w1, b1, w2, b2 *training.Param

	// forward state kept for Backward in train mode
	x, z1, a1 *mat.Dense
}

var _ training.Model = (*MLP)(nil)

// NewMLP creates an MLP with weights and biases drawn uniformly from
// [-1/sqrt(fan_in), 1/sqrt(fan_in)] using seed.
func NewMLP(in, hidden, out int, seed int64) (*MLP, error) {
	if in <= 0 || hidden <= 0 || out <= 0 {
		return nil, fmt.Errorf("layer sizes must be positive, got %d/%d/%d", in, hidden, out)
	}
	rng := rand.New(rand.NewSource(seed))

	m := &MLP{
		in:     in,
		hidden: hidden,
		out:    out,
		w1:     training.NewParam("fc1.weight", hidden*in),
		b1:     training.NewParam("fc1.bias", hidden),
		w2:     training.NewParam("fc2.weight", out*hidden),
		b2:     training.NewParam("fc2.bias", out),
	}
	uniform(rng, m.w1.Data, in)
	uniform(rng, m.b1.Data, in)
	uniform(rng, m.w2.Data, hidden)
	uniform(rng, m.b2.Data, hidden)
	return m, nil
}

func uniform(rng *rand.Rand, dst []float64, fanIn int) {
	bound := 1 / math.Sqrt(float64(fanIn))
	for i := range dst {
		dst[i] = (2*rng.Float64() - 1) * bound
	}
}

// SetMode implements training.Model.
func (m *MLP) SetMode(mode training.Mode) {
	m.mode = mode
	if mode != training.ModeTrain {
		m.x, m.z1, m.a1 = nil, nil, nil
	}
}

// Params implements training.Model.
func (m *MLP) Params() []*training.Param {
	return []*training.Param{m.w1, m.b1, m.w2, m.b2}
}

// Sizes returns the input, hidden and output widths.
func (m *MLP) Sizes() (in, hidden, out int) { return m.in, m.hidden, m.out }

// Forward implements training.Model.
func (m *MLP) Forward(inputs [][]float64) ([][]float64, error) {
	n := len(inputs)
	if n == 0 {
		return nil, errors.New("empty batch")
	}
	x := mat.NewDense(n, m.in, nil)
	for i, row := range inputs {
		if len(row) != m.in {
			return nil, fmt.Errorf("input row %d has %d features, want %d", i, len(row), m.in)
		}
		x.SetRow(i, row)
	}

	w1 := mat.NewDense(m.hidden, m.in, m.w1.Data)
	w2 := mat.NewDense(m.out, m.hidden, m.w2.Data)

	z1 := mat.NewDense(n, m.hidden, nil)
	z1.Mul(x, w1.T())
	addBias(z1, m.b1.Data)

	a1 := mat.DenseCopyOf(z1)
	a1.Apply(func(_, _ int, v float64) float64 { return math.Max(v, 0) }, a1)

	z2 := mat.NewDense(n, m.out, nil)
	z2.Mul(a1, w2.T())
	addBias(z2, m.b2.Data)

	if m.mode == training.ModeTrain {
		m.x, m.z1, m.a1 = x, z1, a1
	}

	logits := make([][]float64, n)
	for i := range logits {
		logits[i] = mat.Row(nil, i, z2)
	}
	return logits, nil
}

// Backward implements training.Model. It consumes the state of the last
// Forward call.
func (m *MLP) Backward(gradLogits [][]float64) error {
	if m.mode != training.ModeTrain || m.x == nil {
		return training.ErrNoGrad
	}
	n, _ := m.x.Dims()
	if len(gradLogits) != n {
		return fmt.Errorf("gradient has %d rows, last forward had %d", len(gradLogits), n)
	}

	g := mat.NewDense(n, m.out, nil)
	for i, row := range gradLogits {
		if len(row) != m.out {
			return fmt.Errorf("gradient row %d has %d values, want %d", i, len(row), m.out)
		}
		g.SetRow(i, row)
	}

	w2 := mat.NewDense(m.out, m.hidden, m.w2.Data)

	var dw2 mat.Dense
	dw2.Mul(g.T(), m.a1)
	floats.Add(m.w2.Grad, dw2.RawMatrix().Data)
	sumRows(m.b2.Grad, g)

	var dz1 mat.Dense
	dz1.Mul(g, w2)
	z1 := m.z1
	dz1.Apply(func(i, j int, v float64) float64 {
		if z1.At(i, j) > 0 {
			return v
		}
		return 0
	}, &dz1)

	var dw1 mat.Dense
	dw1.Mul(dz1.T(), m.x)
	floats.Add(m.w1.Grad, dw1.RawMatrix().Data)
	sumRows(m.b1.Grad, &dz1)

	m.x, m.z1, m.a1 = nil, nil, nil
	return nil
}

func addBias(m *mat.Dense, bias []float64) {
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		floats.Add(m.RawRowView(i), bias)
	}
}

func sumRows(dst []float64, m *mat.Dense) {
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		floats.Add(dst, m.RawRowView(i))
	}
}
