package logging

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

// Config describes how a Logger encodes and filters entries.
type Config struct {
	Level  zapcore.Level
	Format string // "json" or "console"
	Caller bool

	// Sampling thins repeated entries below Error. A zero Tick disables it.
	Sampling Sampling

	// Fields are attached to every entry.
	Fields map[string]string
}

// Sampling lets the first Initial entries with the same level and message
// through in each Tick, then every Thereafter-th one.
type Sampling struct {
	Tick       time.Duration
	Initial    int
	Thereafter int
}

// NewDefaultConfig returns console output at info level without sampling.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.InfoLevel,
		Format: "console",
		Fields: map[string]string{"app": "prunelab"},
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	switch c.Format {
	case "json", "console":
	default:
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	if c.Sampling.Tick < 0 {
		return fmt.Errorf("sampling tick must be >= 0, got %s", c.Sampling.Tick)
	}
	if c.Sampling.Tick > 0 && c.Sampling.Initial < 1 {
		return fmt.Errorf("sampling initial must be >= 1, got %d", c.Sampling.Initial)
	}
	for k, v := range c.Fields {
		if k == "" {
			return errors.New("field key cannot be empty")
		}
		if v == "" {
			return fmt.Errorf("field %q has empty value", k)
		}
	}
	return nil
}
