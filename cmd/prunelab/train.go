package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/prunelab/internal/config"
	"github.com/fyrsmithlabs/prunelab/internal/dataset"
	"github.com/fyrsmithlabs/prunelab/internal/monitor"
	"github.com/fyrsmithlabs/prunelab/internal/training"
	"github.com/fyrsmithlabs/prunelab/internal/training/linear"
)

var (
	trainData     string
	testData      string
	trainEpochs   int
	trainBatch    int
	trainLR       float64
	trainHidden   int
	trainDrops    []int
	trainSeed     int64
	trainAMP      bool
	trainVerbose  bool
	trainOutput   string
	trainProgress bool
)

// trainCmd runs the reference train/eval loop
var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the reference classifier and record per-epoch metrics",
	Long: `Train a two-layer perceptron on a CSV dataset and evaluate it on a test set
after every epoch.

Each CSV row is f1,...,fn,label with an integer class label. The history
(train_loss, test_loss, top1_accuracy, top5_accuracy, testing_time) is
written to train_results.csv; the first row is the evaluation before
training.

Examples:
  # Ten epochs with defaults from config
  prunelab train --train-data train.csv --test-data test.csv

  # Half-precision logits with loss scaling, progress bar on stderr
  prunelab train --train-data train.csv --test-data test.csv --amp --progress`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringVar(&trainData, "train-data", "", "training CSV")
	trainCmd.Flags().StringVar(&testData, "test-data", "", "test CSV")
	trainCmd.Flags().IntVar(&trainEpochs, "epochs", 0, "training epochs")
	trainCmd.Flags().IntVar(&trainBatch, "batch-size", 0, "training batch size")
	trainCmd.Flags().Float64Var(&trainLR, "lr", 0, "learning rate")
	trainCmd.Flags().IntVar(&trainHidden, "hidden", 0, "hidden layer width")
	trainCmd.Flags().IntSliceVar(&trainDrops, "lr-drops", nil, "epochs after which the learning rate is multiplied by lr_drop_rate")
	trainCmd.Flags().Int64Var(&trainSeed, "seed", 0, "seed for initialization and shuffling")
	trainCmd.Flags().BoolVar(&trainAMP, "amp", false, "half-precision logits with dynamic loss scaling")
	trainCmd.Flags().BoolVarP(&trainVerbose, "verbose", "v", false, "log every log_interval batches and each evaluation")
	trainCmd.Flags().StringVarP(&trainOutput, "output", "o", "", "history CSV (default train_results.csv)")
	trainCmd.Flags().BoolVar(&trainProgress, "progress", false, "render epoch progress on stderr")
}

func trainConfig(cmd *cobra.Command) (config.TrainConfig, error) {
	tc := cfg.Train
	flags := cmd.Flags()
	if flags.Changed("train-data") {
		tc.TrainData = trainData
	}
	if flags.Changed("test-data") {
		tc.TestData = testData
	}
	if flags.Changed("epochs") {
		tc.Epochs = trainEpochs
	}
	if flags.Changed("batch-size") {
		tc.BatchSize = trainBatch
	}
	if flags.Changed("lr") {
		tc.LR = trainLR
	}
	if flags.Changed("hidden") {
		tc.Hidden = trainHidden
	}
	if flags.Changed("lr-drops") {
		tc.LRDrops = trainDrops
	}
	if flags.Changed("seed") {
		tc.Seed = trainSeed
	}
	if flags.Changed("amp") {
		tc.AMP = trainAMP
	}
	if flags.Changed("verbose") {
		tc.Verbose = trainVerbose
	}
	if flags.Changed("output") {
		tc.Output = trainOutput
	}
	if tc.TrainData == "" || tc.TestData == "" {
		return tc, errors.New("--train-data and --test-data are required")
	}
	return tc, tc.Validate()
}

// runTrain handles the train command
func runTrain(cmd *cobra.Command, _ []string) error {
	tc, err := trainConfig(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	train, err := dataset.Load(tc.TrainData)
	if err != nil {
		return err
	}
	test, err := dataset.Load(tc.TestData)
	if err != nil {
		return err
	}
	if train.Features() != test.Features() {
		return fmt.Errorf("train data has %d features, test data has %d", train.Features(), test.Features())
	}
	classes := max(train.Classes(), test.Classes())

	trainLoader, err := dataset.NewLoader(train, tc.BatchSize, tc.Shuffle, tc.Seed)
	if err != nil {
		return err
	}
	testLoader, err := dataset.NewLoader(test, tc.TestBatchSize, false, tc.Seed)
	if err != nil {
		return err
	}

	model, err := linear.NewMLP(train.Features(), tc.Hidden, classes, tc.Seed)
	if err != nil {
		return err
	}
	opt := linear.NewSGD(model.Params(), tc.LR, tc.Momentum, tc.WeightDecay)
	var sched training.Scheduler = training.ConstantLR{}
	if len(tc.LRDrops) > 0 {
		sched = training.NewMultiStepLR(opt, tc.LRDrops, tc.LRDropRate)
	}

	logger.Info(ctx, "training",
		zap.String("train_data", tc.TrainData),
		zap.Int("train_samples", train.Len()),
		zap.Int("test_samples", test.Len()),
		zap.Int("features", train.Features()),
		zap.Int("classes", classes),
		zap.Int("epochs", tc.Epochs),
		zap.Bool("amp", tc.AMP))

	var view *monitor.Progress
	if trainProgress {
		view = monitor.NewProgress(tc.Epochs)
	}

	history, err := training.TrainEvalLoop(ctx, training.LoopConfig{
		Model:       model,
		Loss:        linear.CrossEntropy{},
		Optimizer:   opt,
		Scheduler:   sched,
		TrainLoader: trainLoader,
		TestLoader:  testLoader,
		Epochs:      tc.Epochs,
		Verbose:     tc.Verbose,
		LogInterval: tc.LogInterval,
		AMP:         tc.AMP,
		Metrics:     runMetrics,
		OnEpoch: func(epoch int, row training.EpochRow) {
			if view == nil {
				return
			}
			view.Update(epoch, row)
			fmt.Fprintln(cmd.ErrOrStderr(), view.View())
		},
	})
	if err != nil {
		return err
	}

	if err := writeTable(cmd, tc.Output, history.Table()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Results saved to %s\n", tc.Output)
	return nil
}
