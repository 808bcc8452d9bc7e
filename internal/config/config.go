// Package config provides configuration loading for prunelab.
//
// Configuration is layered: hardcoded defaults, then an optional YAML file,
// then PRUNELAB_* environment variables. Command-line flags are applied on
// top by the commands themselves.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds the complete prunelab configuration.
type Config struct {
	Logs    LogsConfig    `koanf:"logs"`
	Stats   StatsConfig   `koanf:"stats"`
	Train   TrainConfig   `koanf:"train"`
	Output  OutputConfig  `koanf:"output"`
	Logging LoggingConfig `koanf:"logging"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// LogsConfig configures the log directory parser.
type LogsConfig struct {
	Dir      string `koanf:"dir"`
	Glob     string `koanf:"glob"`
	Output   string `koanf:"output"`   // defaults to <dir>/pruning_experiment_results.csv
	Patterns string `koanf:"patterns"` // optional TOML pattern file
	Workers  int    `koanf:"workers"`
}

// StatsConfig configures the compression record parser.
type StatsConfig struct {
	BaseDir    string `koanf:"base_dir"`
	Glob       string `koanf:"glob"`
	RecordFile string `koanf:"record_file"`
	OutDir     string `koanf:"out_dir"`
}

// TrainConfig configures the reference training run.
type TrainConfig struct {
	TrainData     string  `koanf:"train_data"`
	TestData      string  `koanf:"test_data"`
	Epochs        int     `koanf:"epochs"`
	BatchSize     int     `koanf:"batch_size"`
	TestBatchSize int     `koanf:"test_batch_size"`
	Hidden        int     `koanf:"hidden"`
	LR            float64 `koanf:"lr"`
	Momentum      float64 `koanf:"momentum"`
	WeightDecay   float64 `koanf:"weight_decay"`
	LRDrops       []int   `koanf:"lr_drops"`
	LRDropRate    float64 `koanf:"lr_drop_rate"`
	Seed          int64   `koanf:"seed"`
	Shuffle       bool    `koanf:"shuffle"`
	AMP           bool    `koanf:"amp"`
	Verbose       bool    `koanf:"verbose"`
	LogInterval   int     `koanf:"log_interval"`
	Output        string  `koanf:"output"`
}

// OutputConfig controls how tables are written.
type OutputConfig struct {
	NARep   string `koanf:"na_rep"`  // text written for missing cells
	Preview int    `koanf:"preview"` // rows rendered to stdout after writing, 0 disables
}

// LoggingConfig selects log level and encoding. A zero SampleTick
// disables sampling.
type LoggingConfig struct {
	Level            string   `koanf:"level"`
	Format           string   `koanf:"format"`
	Caller           bool     `koanf:"caller"`
	SampleTick       Duration `koanf:"sample_tick"`
	SampleInitial    int      `koanf:"sample_initial"`
	SampleThereafter int      `koanf:"sample_thereafter"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `koanf:"textfile"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Logs: LogsConfig{
			Dir:     "logs",
			Glob:    "*.log",
			Workers: 4,
		},
		Stats: StatsConfig{
			BaseDir:    "Results/data",
			Glob:       "singleshot/*-vgg16-cifar10-singleshot-lottery-c0.5-*",
			RecordFile: "compression.csv",
			OutDir:     ".",
		},
		Train: TrainConfig{
			Epochs:        10,
			BatchSize:     64,
			TestBatchSize: 256,
			Hidden:        100,
			LR:            0.01,
			Momentum:      0.9,
			LRDropRate:    0.1,
			Seed:          1,
			Shuffle:       true,
			LogInterval:   10,
			Output:        "train_results.csv",
		},
		Output: OutputConfig{
			NARep:   "",
			Preview: 5,
		},
		Logging: LoggingConfig{
			Level:            "info",
			Format:           "console",
			SampleInitial:    100,
			SampleThereafter: 10,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Logs.Glob == "" {
		return errors.New("logs.glob cannot be empty")
	}
	if c.Logs.Workers < 1 {
		return fmt.Errorf("logs.workers must be >= 1, got %d", c.Logs.Workers)
	}
	if c.Stats.Glob == "" {
		return errors.New("stats.glob cannot be empty")
	}
	if c.Stats.RecordFile == "" || strings.ContainsRune(c.Stats.RecordFile, '/') {
		return fmt.Errorf("stats.record_file must be a bare file name, got %q", c.Stats.RecordFile)
	}
	if err := c.Train.Validate(); err != nil {
		return err
	}
	if c.Output.Preview < 0 {
		return fmt.Errorf("output.preview must be >= 0, got %d", c.Output.Preview)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	if c.Logging.SampleTick < 0 {
		return fmt.Errorf("logging.sample_tick must be >= 0, got %s", c.Logging.SampleTick.Duration())
	}
	if c.Logging.SampleTick > 0 && c.Logging.SampleInitial < 1 {
		return fmt.Errorf("logging.sample_initial must be >= 1 when sampling, got %d", c.Logging.SampleInitial)
	}
	return nil
}

// Validate checks the training section.
func (t TrainConfig) Validate() error {
	if t.Epochs < 0 {
		return fmt.Errorf("train.epochs must be >= 0, got %d", t.Epochs)
	}
	if t.BatchSize < 1 || t.TestBatchSize < 1 {
		return fmt.Errorf("train batch sizes must be >= 1, got %d/%d", t.BatchSize, t.TestBatchSize)
	}
	if t.Hidden < 1 {
		return fmt.Errorf("train.hidden must be >= 1, got %d", t.Hidden)
	}
	if t.LR <= 0 {
		return fmt.Errorf("train.lr must be positive, got %g", t.LR)
	}
	if t.LRDropRate <= 0 {
		return fmt.Errorf("train.lr_drop_rate must be positive, got %g", t.LRDropRate)
	}
	if t.LogInterval < 1 {
		return fmt.Errorf("train.log_interval must be >= 1, got %d", t.LogInterval)
	}
	for i := 1; i < len(t.LRDrops); i++ {
		if t.LRDrops[i] <= t.LRDrops[i-1] {
			return fmt.Errorf("train.lr_drops must be strictly increasing: %v", t.LRDrops)
		}
	}
	return nil
}
