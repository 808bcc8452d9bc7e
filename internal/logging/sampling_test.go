package logging

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sampledLogger(s Sampling) (*Logger, *observer.ObservedLogs) {
	core, observed := observer.New(TraceLevel)
	return &Logger{zap: zap.New(withSampling(core, s))}, observed
}

func TestWithSampling_Disabled(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	assert.Equal(t, core, withSampling(core, Sampling{}))
}

func TestWithSampling_BelowErrorSampled(t *testing.T) {
	logger, observed := sampledLogger(Sampling{Tick: time.Minute, Initial: 5})

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		logger.Info(ctx, "Train Epoch")
		logger.Warn(ctx, "skipping log file")
	}

	assert.Len(t, observed.FilterMessage("Train Epoch").All(), 5)
	assert.Len(t, observed.FilterMessage("skipping log file").All(), 5)
}

func TestWithSampling_ErrorsNeverSampled(t *testing.T) {
	logger, observed := sampledLogger(Sampling{Tick: time.Minute, Initial: 1})

	ctx := context.Background()
	for i := 0; i < 200; i++ {
		logger.Error(ctx, "failed to write metrics")
	}

	assert.Len(t, observed.FilterMessage("failed to write metrics").All(), 200)
}

func TestLevelRange(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)

	r := levelRange{Core: core, min: TraceLevel, max: zapcore.WarnLevel}
	assert.False(t, r.Enabled(zapcore.DebugLevel), "wrapped core still filters")
	assert.True(t, r.Enabled(zapcore.WarnLevel))
	assert.False(t, r.Enabled(zapcore.ErrorLevel))

	child := r.With([]zapcore.Field{zap.String("k", "v")})
	assert.False(t, child.Enabled(zapcore.ErrorLevel))
	assert.True(t, child.Enabled(zapcore.InfoLevel))
}
