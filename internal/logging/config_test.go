package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, zapcore.InfoLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.False(t, cfg.Caller)
	assert.Zero(t, cfg.Sampling.Tick)
	assert.Equal(t, "prunelab", cfg.Fields["app"])
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"json", func(c *Config) { c.Format = "json" }, ""},
		{"xml", func(c *Config) { c.Format = "xml" }, "format must be 'json' or 'console'"},
		{"negative tick", func(c *Config) { c.Sampling.Tick = -time.Second }, "sampling tick must be >= 0"},
		{"sampling without initial", func(c *Config) { c.Sampling = Sampling{Tick: time.Second} }, "sampling initial must be >= 1"},
		{"sampling", func(c *Config) { c.Sampling = Sampling{Tick: time.Second, Initial: 5} }, ""},
		{"empty field key", func(c *Config) { c.Fields[""] = "x" }, "field key cannot be empty"},
		{"empty field value", func(c *Config) { c.Fields["app"] = "" }, `field "app" has empty value`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
