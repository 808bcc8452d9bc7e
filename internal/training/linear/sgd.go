package linear

import (
	"gonum.org/v1/gonum/floats"

	"github.com/fyrsmithlabs/prunelab/internal/training"
)

// SGD is stochastic gradient descent with optional momentum and L2 weight
// decay.
type SGD struct {
	params      []*training.Param
	lr          float64
	momentum    float64
	weightDecay float64

	buf [][]float64
}

var _ training.Optimizer = (*SGD)(nil)

// NewSGD creates an optimizer over params.
func NewSGD(params []*training.Param, lr, momentum, weightDecay float64) *SGD {
	return &SGD{
		params:      params,
		lr:          lr,
		momentum:    momentum,
		weightDecay: weightDecay,
		buf:         make([][]float64, len(params)),
	}
}

// ZeroGrad clears every gradient.
func (o *SGD) ZeroGrad() {
	for _, p := range o.params {
		for i := range p.Grad {
			p.Grad[i] = 0
		}
	}
}

// Step applies one update.
func (o *SGD) Step() {
	for k, p := range o.params {
		d := append([]float64(nil), p.Grad...)
		if o.weightDecay != 0 {
			floats.AddScaled(d, o.weightDecay, p.Data)
		}
		if o.momentum != 0 {
			if o.buf[k] == nil {
				o.buf[k] = d
			} else {
				floats.Scale(o.momentum, o.buf[k])
				floats.Add(o.buf[k], d)
			}
			d = o.buf[k]
		}
		floats.AddScaled(p.Data, -o.lr, d)
	}
}

// LR returns the learning rate.
func (o *SGD) LR() float64 { return o.lr }

// SetLR sets the learning rate.
func (o *SGD) SetLR(lr float64) { o.lr = lr }
