package linear

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/fyrsmithlabs/prunelab/internal/training"
)

// CrossEntropy is softmax followed by negative log-likelihood, averaged over
// the batch.
type CrossEntropy struct{}

var _ training.Loss = CrossEntropy{}

// Forward implements training.Loss.
func (CrossEntropy) Forward(logits [][]float64, targets []int) (float64, [][]float64, error) {
	n := len(logits)
	if n == 0 || n != len(targets) {
		return 0, nil, fmt.Errorf("got %d logit rows for %d targets", n, len(targets))
	}

	inv := 1 / float64(n)
	var total float64
	grad := make([][]float64, n)
	for i, row := range logits {
		t := targets[i]
		if t < 0 || t >= len(row) {
			return 0, nil, fmt.Errorf("target %d out of range for %d classes", t, len(row))
		}
		lse := floats.LogSumExp(row)
		total += lse - row[t]

		g := make([]float64, len(row))
		for j, v := range row {
			g[j] = math.Exp(v-lse) * inv
		}
		g[t] -= inv
		grad[i] = g
	}
	return total * inv, grad, nil
}
