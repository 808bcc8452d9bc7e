package training

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/prunelab/internal/logging"
	"github.com/fyrsmithlabs/prunelab/internal/metrics"
)

// DefaultLogInterval is the number of batches between progress lines.
const DefaultLogInterval = 10

// Step holds what one training epoch needs.
type Step struct {
	Model     Model
	Loss      Loss
	Optimizer Optimizer
	Loader    Loader

	// Scaler scales the loss gradient. Nil means a disabled scaler. With AMP
	// the scaler should be enabled and shared across epochs.
	Scaler *GradScaler
	// AMP rounds logits to half precision before the loss.
	AMP bool

	Verbose     bool
	LogInterval int
	Metrics     *metrics.Metrics
}

// TrainEpoch runs one pass over s.Loader in train mode and returns the mean
// loss per sample. The logger is taken from ctx.
func TrainEpoch(ctx context.Context, s Step, epoch int) (float64, error) {
	n := s.Loader.Len()
	if n == 0 {
		return 0, ErrEmptyDataset
	}
	scaler := s.Scaler
	if scaler == nil {
		scaler = NewGradScaler(false)
	}
	interval := s.LogInterval
	if interval <= 0 {
		interval = DefaultLogInterval
	}
	logger := logging.FromContext(ctx)

	s.Model.SetMode(ModeTrain)
	params := s.Model.Params()
	batches := s.Loader.Batches()

	var total float64
	for idx, b := range batches {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		s.Optimizer.ZeroGrad()

		logits, err := s.Model.Forward(b.Inputs)
		if err != nil {
			return 0, fmt.Errorf("epoch %d batch %d: forward: %w", epoch, idx, err)
		}
		if s.AMP {
			roundHalf(logits)
		}
		loss, grad, err := s.Loss.Forward(logits, b.Targets)
		if err != nil {
			return 0, fmt.Errorf("epoch %d batch %d: loss: %w", epoch, idx, err)
		}
		total += loss * float64(b.Size())

		scaler.ScaleGrad(grad)
		if s.AMP {
			roundHalf(grad)
		}
		if err := s.Model.Backward(grad); err != nil {
			return 0, fmt.Errorf("epoch %d batch %d: backward: %w", epoch, idx, err)
		}
		skipped := scaler.Step(s.Optimizer, params)
		scaler.Update()
		if scaler.Enabled() {
			s.Metrics.RecordScaler(scaler.Scale(), skipped)
		}
		if skipped {
			logger.Debug(ctx, "skipped optimizer step on non-finite gradients",
				zap.Int("epoch", epoch),
				zap.Int("batch", idx),
				zap.Float64("scale", scaler.Scale()))
		}

		if s.Verbose && idx%interval == 0 {
			logger.Info(ctx, fmt.Sprintf("Train Epoch: %d [%d/%d (%.0f%%)]\tLoss: %.6f",
				epoch, idx*b.Size(), n, 100*float64(idx)/float64(len(batches)), loss),
				zap.Int("epoch", epoch),
				zap.Int("batch", idx),
				zap.Float64("loss", loss))
		}
	}
	return total / float64(n), nil
}
