package training

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/prunelab/internal/logging"
	"github.com/fyrsmithlabs/prunelab/internal/metrics"
	"github.com/fyrsmithlabs/prunelab/internal/table"
)

// History column names.
const (
	ColTrainLoss    = "train_loss"
	ColTestLoss     = "test_loss"
	ColTop1Accuracy = "top1_accuracy"
	ColTop5Accuracy = "top5_accuracy"
	ColTestingTime  = "testing_time"
)

// HistoryColumns lists the history columns in order.
var HistoryColumns = []string{ColTrainLoss, ColTestLoss, ColTop1Accuracy, ColTop5Accuracy, ColTestingTime}

// EpochRow is one row of the history. The initial row has NaN TrainLoss and
// TestingTime.
type EpochRow struct {
	TrainLoss   float64
	TestLoss    float64
	Top1        float64
	Top5        float64
	TestingTime float64
}

// History is the per-epoch record of a training run. Rows[0] is the
// evaluation before training.
type History struct {
	Rows []EpochRow
}

// Table converts the history to a table with HistoryColumns. NaN values are
// missing.
func (h *History) Table() *table.Table {
	t := table.New(HistoryColumns...)
	for _, r := range h.Rows {
		// column count matches HistoryColumns
		_ = t.AppendRow(
			table.Num(r.TrainLoss),
			table.Num(r.TestLoss),
			table.Num(r.Top1),
			table.Num(r.Top5),
			table.Num(r.TestingTime),
		)
	}
	return t
}

// Top1 returns the top-1 accuracy of every row in order.
func (h *History) Top1() []float64 {
	out := make([]float64, len(h.Rows))
	for i, r := range h.Rows {
		out[i] = r.Top1
	}
	return out
}

// LoopConfig configures TrainEvalLoop.
type LoopConfig struct {
	Model       Model
	Loss        Loss
	Optimizer   Optimizer
	Scheduler   Scheduler
	TrainLoader Loader
	TestLoader  Loader
	Epochs      int

	Verbose     bool
	LogInterval int
	// AMP enables half-precision logits and dynamic loss scaling. One scaler
	// is shared by every epoch of the run.
	AMP bool

	Metrics *metrics.Metrics
	// OnEpoch is called after each row is appended, starting with the
	// initial evaluation as epoch -1.
	OnEpoch func(epoch int, row EpochRow)
	// Now defaults to time.Now.
	Now func() time.Time
}

func (c *LoopConfig) validate() error {
	switch {
	case c.Model == nil:
		return errors.New("model is required")
	case c.Loss == nil:
		return errors.New("loss is required")
	case c.Optimizer == nil:
		return errors.New("optimizer is required")
	case c.TrainLoader == nil || c.TestLoader == nil:
		return errors.New("train and test loaders are required")
	case c.Epochs < 0:
		return fmt.Errorf("epochs must be >= 0, got %d", c.Epochs)
	}
	return nil
}

// TrainEvalLoop evaluates the model, then trains and evaluates it for
// cfg.Epochs epochs, stepping the scheduler after each. The returned history
// has cfg.Epochs+1 rows.
func TrainEvalLoop(ctx context.Context, cfg LoopConfig) (*History, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = ConstantLR{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := logging.FromContext(ctx)

	initial, err := Evaluate(ctx, cfg.Model, cfg.Loss, cfg.TestLoader, cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("initial evaluation: %w", err)
	}
	cfg.Metrics.RecordEval(initial.Loss, initial.Top1, initial.Top5, math.NaN())

	h := &History{}
	h.add(&cfg, -1, EpochRow{
		TrainLoss:   math.NaN(),
		TestLoss:    initial.Loss,
		Top1:        initial.Top1,
		Top5:        initial.Top5,
		TestingTime: math.NaN(),
	})

	step := Step{
		Model:       cfg.Model,
		Loss:        cfg.Loss,
		Optimizer:   cfg.Optimizer,
		Loader:      cfg.TrainLoader,
		Scaler:      NewGradScaler(cfg.AMP),
		AMP:         cfg.AMP,
		Verbose:     cfg.Verbose,
		LogInterval: cfg.LogInterval,
		Metrics:     cfg.Metrics,
	}

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		trainLoss, err := TrainEpoch(ctx, step, epoch)
		if err != nil {
			return h, fmt.Errorf("train epoch %d: %w", epoch, err)
		}

		start := cfg.Now()
		res, err := Evaluate(ctx, cfg.Model, cfg.Loss, cfg.TestLoader, cfg.Verbose)
		if err != nil {
			return h, fmt.Errorf("evaluate epoch %d: %w", epoch, err)
		}
		elapsed := cfg.Now().Sub(start).Seconds()

		row := EpochRow{
			TrainLoss:   trainLoss,
			TestLoss:    res.Loss,
			Top1:        res.Top1,
			Top5:        res.Top5,
			TestingTime: elapsed,
		}
		cfg.Scheduler.Step()

		cfg.Metrics.RecordEpoch(epoch, trainLoss)
		cfg.Metrics.RecordEval(res.Loss, res.Top1, res.Top5, elapsed)
		logger.Debug(ctx, "epoch complete",
			zap.Int("epoch", epoch),
			zap.Float64("train_loss", trainLoss),
			zap.Float64("test_loss", res.Loss),
			zap.Float64("top1", res.Top1),
			zap.Float64("lr", cfg.Optimizer.LR()))

		h.add(&cfg, epoch, row)
	}
	return h, nil
}

func (h *History) add(cfg *LoopConfig, epoch int, row EpochRow) {
	h.Rows = append(h.Rows, row)
	if cfg.OnEpoch != nil {
		cfg.OnEpoch(epoch, row)
	}
}
