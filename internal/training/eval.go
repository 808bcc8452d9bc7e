package training

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/prunelab/internal/logging"
)

// topK is the widest accuracy reported by Evaluate.
const topK = 5

// EvalResult is the outcome of one evaluation pass.
type EvalResult struct {
	Loss     float64
	Top1     float64
	Top5     float64
	Correct1 int
	Correct5 int
	Total    int
}

// Evaluate runs one pass over loader in eval mode without backward passes.
// Loss is the mean per sample; Top1 and Top5 are percentages of the dataset
// size. The logger is taken from ctx.
func Evaluate(ctx context.Context, model Model, loss Loss, loader Loader, verbose bool) (EvalResult, error) {
	n := loader.Len()
	if n == 0 {
		return EvalResult{}, ErrEmptyDataset
	}

	model.SetMode(ModeEval)

	var (
		total              float64
		correct1, correct5 int
	)
	for idx, b := range loader.Batches() {
		if err := ctx.Err(); err != nil {
			return EvalResult{}, err
		}

		logits, err := model.Forward(b.Inputs)
		if err != nil {
			return EvalResult{}, fmt.Errorf("eval batch %d: forward: %w", idx, err)
		}
		l, _, err := loss.Forward(logits, b.Targets)
		if err != nil {
			return EvalResult{}, fmt.Errorf("eval batch %d: loss: %w", idx, err)
		}
		total += l * float64(b.Size())

		for i, row := range logits {
			c1, c5 := topKCorrect(row, b.Targets[i])
			if c1 {
				correct1++
			}
			if c5 {
				correct5++
			}
		}
	}

	res := EvalResult{
		Loss:     total / float64(n),
		Top1:     100 * float64(correct1) / float64(n),
		Top5:     100 * float64(correct5) / float64(n),
		Correct1: correct1,
		Correct5: correct5,
		Total:    n,
	}

	if verbose {
		logging.FromContext(ctx).Info(ctx,
			fmt.Sprintf("Evaluation: Average loss: %.4f, Top 1 Accuracy: %d/%d (%.2f%%)",
				res.Loss, correct1, n, res.Top1),
			zap.Float64("loss", res.Loss),
			zap.Float64("top1", res.Top1),
			zap.Float64("top5", res.Top5))
	}
	return res, nil
}

// topKCorrect reports whether target is the highest logit and whether it is
// among the topK highest. Ties rank the lower index first.
func topKCorrect(logits []float64, target int) (top1, top5 bool) {
	if target < 0 || target >= len(logits) {
		return false, false
	}
	t := logits[target]
	if math.IsNaN(t) {
		return false, false
	}
	rank := 0
	for j, v := range logits {
		if v > t || (v == t && j < target) {
			rank++
		}
	}
	return rank == 0, rank < topK
}
