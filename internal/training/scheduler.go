package training

// StepLR multiplies the learning rate by Gamma every StepSize epochs.
type StepLR struct {
	opt      Optimizer
	stepSize int
	gamma    float64
	epoch    int
}

// NewStepLR creates a StepLR. A non-positive stepSize never decays.
func NewStepLR(opt Optimizer, stepSize int, gamma float64) *StepLR {
	return &StepLR{opt: opt, stepSize: stepSize, gamma: gamma}
}

// Step advances one epoch.
func (s *StepLR) Step() {
	s.epoch++
	if s.stepSize > 0 && s.epoch%s.stepSize == 0 {
		s.opt.SetLR(s.opt.LR() * s.gamma)
	}
}

// MultiStepLR multiplies the learning rate by gamma at each milestone epoch.
// A milestone listed twice decays twice.
type MultiStepLR struct {
	opt        Optimizer
	milestones map[int]int
	gamma      float64
	epoch      int
}

// NewMultiStepLR creates a MultiStepLR.
func NewMultiStepLR(opt Optimizer, milestones []int, gamma float64) *MultiStepLR {
	m := make(map[int]int, len(milestones))
	for _, e := range milestones {
		m[e]++
	}
	return &MultiStepLR{opt: opt, milestones: m, gamma: gamma}
}

// Step advances one epoch.
func (s *MultiStepLR) Step() {
	s.epoch++
	for i := 0; i < s.milestones[s.epoch]; i++ {
		s.opt.SetLR(s.opt.LR() * s.gamma)
	}
}

// ConstantLR leaves the learning rate unchanged.
type ConstantLR struct{}

// Step does nothing.
func (ConstantLR) Step() {}
