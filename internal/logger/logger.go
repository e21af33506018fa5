package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process-wide zap logger. Importer runs are operator-facing,
// so timestamps are ISO8601 and stacktraces are suppressed below panic level.
func New(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()

	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cfg.DisableStacktrace = true

	log, err := cfg.Build()
	if err != nil {
		panic("logger init failed: " + err.Error())
	}
	return log
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() *zap.Logger { return zap.NewNop() }
