package training

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGradScaler_Disabled(t *testing.T) {
	s := NewGradScaler(false)
	opt := &fakeOptimizer{}
	p := &Param{Grad: []float64{math.Inf(1)}}

	grad := [][]float64{{2}}
	s.ScaleGrad(grad)
	assert.Equal(t, 2.0, grad[0][0])

	assert.False(t, s.Step(opt, []*Param{p}))
	s.Update()
	assert.Equal(t, 1, opt.steps)
	assert.Equal(t, 1.0, s.Scale())
}

func TestGradScaler_UnscalesAndSteps(t *testing.T) {
	s := NewGradScaler(true)
	opt := &fakeOptimizer{}

	grad := [][]float64{{0.5, -1}}
	s.ScaleGrad(grad)
	assert.Equal(t, []float64{32768, -65536}, grad[0])

	p := &Param{Grad: []float64{65536, 131072}}
	assert.False(t, s.Step(opt, []*Param{p}))
	assert.Equal(t, []float64{1, 2}, p.Grad)
	assert.Equal(t, 1, opt.steps)
}

func TestGradScaler_BackoffAndGrowth(t *testing.T) {
	s := NewGradScaler(true)
	s.growthInterval = 3
	opt := &fakeOptimizer{}

	bad := &Param{Grad: []float64{math.NaN()}}
	assert.True(t, s.Step(opt, []*Param{bad}))
	s.Update()
	assert.Equal(t, 32768.0, s.Scale())
	assert.Zero(t, opt.steps)

	for i := 0; i < 3; i++ {
		good := &Param{Grad: []float64{1}}
		assert.False(t, s.Step(opt, []*Param{good}))
		s.Update()
	}
	assert.Equal(t, 65536.0, s.Scale())
	assert.Equal(t, 3, opt.steps)

	// a skip resets the growth tracker
	for i := 0; i < 2; i++ {
		s.Step(opt, []*Param{{Grad: []float64{1}}})
		s.Update()
	}
	s.Step(opt, []*Param{{Grad: []float64{math.Inf(-1)}}})
	s.Update()
	s.Step(opt, []*Param{{Grad: []float64{1}}})
	s.Update()
	assert.Equal(t, 32768.0, s.Scale())
}

func TestSchedulers(t *testing.T) {
	t.Run("step", func(t *testing.T) {
		opt := &fakeOptimizer{lr: 1}
		s := NewStepLR(opt, 2, 0.5)
		var lrs []float64
		for i := 0; i < 5; i++ {
			s.Step()
			lrs = append(lrs, opt.LR())
		}
		assert.Equal(t, []float64{1, 0.5, 0.5, 0.25, 0.25}, lrs)
	})

	t.Run("multistep", func(t *testing.T) {
		opt := &fakeOptimizer{lr: 1}
		s := NewMultiStepLR(opt, []int{2, 4, 4}, 0.1)
		var lrs []float64
		for i := 0; i < 5; i++ {
			s.Step()
			lrs = append(lrs, opt.LR())
		}
		assert.InDeltaSlice(t, []float64{1, 0.1, 0.1, 0.001, 0.001}, lrs, 1e-12)
	})

	t.Run("step size zero", func(t *testing.T) {
		opt := &fakeOptimizer{lr: 1}
		s := NewStepLR(opt, 0, 0.5)
		s.Step()
		assert.Equal(t, 1.0, opt.LR())
	})

	t.Run("constant", func(t *testing.T) {
		ConstantLR{}.Step()
	})
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "train", ModeTrain.String())
	assert.Equal(t, "eval", ModeEval.String())
	assert.Equal(t, "unknown", Mode(9).String())
}
