package logging

import "go.uber.org/zap/zapcore"

// withSampling samples entries below Error on core. Error and above always
// pass.
func withSampling(core zapcore.Core, s Sampling) zapcore.Core {
	if s.Tick <= 0 {
		return core
	}
	return zapcore.NewTee(
		levelRange{Core: core, min: zapcore.ErrorLevel, max: zapcore.FatalLevel},
		zapcore.NewSamplerWithOptions(
			levelRange{Core: core, min: TraceLevel, max: zapcore.WarnLevel},
			s.Tick, s.Initial, s.Thereafter,
		),
	)
}

// levelRange passes entries with min <= level <= max to the wrapped core.
type levelRange struct {
	zapcore.Core
	min, max zapcore.Level
}

func (r levelRange) Enabled(lvl zapcore.Level) bool {
	return lvl >= r.min && lvl <= r.max && r.Core.Enabled(lvl)
}

func (r levelRange) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !r.Enabled(e.Level) {
		return ce
	}
	return r.Core.Check(e, ce)
}

func (r levelRange) With(fields []zapcore.Field) zapcore.Core {
	return levelRange{Core: r.Core.With(fields), min: r.min, max: r.max}
}
