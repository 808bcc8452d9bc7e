package training

import "math"

// Defaults for NewGradScaler.
const (
	DefaultInitScale      = 65536.0
	DefaultGrowthFactor   = 2.0
	DefaultBackoffFactor  = 0.5
	DefaultGrowthInterval = 2000
)

// GradScaler implements dynamic loss scaling for half-precision training.
//
// The loss gradient is multiplied by the scale before Backward. Step divides
// the param gradients by the scale and skips the optimizer step when any of
// them is not finite. Update shrinks the scale after a skipped step and
// grows it after GrowthInterval consecutive good steps.
//
// A disabled scaler passes gradients through and always steps.
type GradScaler struct {
	enabled bool

	scale          float64
	growthFactor   float64
	backoffFactor  float64
	growthInterval int

	growthTracker int
	foundInf      bool
}

// NewGradScaler returns a scaler with the default factors.
func NewGradScaler(enabled bool) *GradScaler {
	return &GradScaler{
		enabled:        enabled,
		scale:          DefaultInitScale,
		growthFactor:   DefaultGrowthFactor,
		backoffFactor:  DefaultBackoffFactor,
		growthInterval: DefaultGrowthInterval,
	}
}

// Enabled reports whether the scaler scales.
func (s *GradScaler) Enabled() bool { return s.enabled }

// Scale returns the current scale, or 1 when disabled.
func (s *GradScaler) Scale() float64 {
	if !s.enabled {
		return 1
	}
	return s.scale
}

// ScaleGrad multiplies grad in place by the current scale.
func (s *GradScaler) ScaleGrad(grad [][]float64) {
	if !s.enabled {
		return
	}
	for _, row := range grad {
		for j := range row {
			row[j] *= s.scale
		}
	}
}

// Step unscales the gradients of params and steps opt unless a gradient is
// infinite or NaN. It reports whether the step was skipped.
func (s *GradScaler) Step(opt Optimizer, params []*Param) bool {
	if !s.enabled {
		opt.Step()
		return false
	}

	inv := 1 / s.scale
	s.foundInf = false
	for _, p := range params {
		for i, g := range p.Grad {
			g *= inv
			if math.IsInf(g, 0) || math.IsNaN(g) {
				s.foundInf = true
			}
			p.Grad[i] = g
		}
	}
	if s.foundInf {
		return true
	}
	opt.Step()
	return false
}

// Update adjusts the scale after a Step.
func (s *GradScaler) Update() {
	if !s.enabled {
		return
	}
	if s.foundInf {
		s.scale *= s.backoffFactor
		s.growthTracker = 0
		s.foundInf = false
		return
	}
	s.growthTracker++
	if s.growthTracker == s.growthInterval {
		s.scale *= s.growthFactor
		s.growthTracker = 0
	}
}
