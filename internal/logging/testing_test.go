package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestTestLogger(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithExperiment(context.Background(), "synflow")

	tl.Trace(ctx, "matched pattern", zap.String("pattern", "flop_sparsity"))
	tl.Warn(ctx, "skipping record file", zap.String("file", "a.csv"), zap.Int("line", 2))

	assert.Len(t, tl.All(), 2)
	assert.Equal(t, 1, tl.FilterMessage("skipping").Len())

	tl.AssertLogged(t, TraceLevel, "matched")
	tl.AssertLogged(t, zapcore.WarnLevel, "skipping")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "skipping")
	tl.AssertField(t, "skipping", "experiment", "synflow")
	tl.AssertField(t, "skipping", "file", "a.csv")
	tl.AssertField(t, "skipping", "line", int64(2))
}
