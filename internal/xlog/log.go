// Package xlog wires up the structured logger used across fshlint's
// subsystems whenever the spec calls for "log and continue" behavior
// (rule isolation, export soft-fail, deferred-rule retry, alias/ruleset
// collisions). No subsystem holds process-wide logger state; a *zap.Logger
// is threaded explicitly through constructors, matching spec.md's "no
// process-wide mutable state" design note (§9).
package xlog

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a development-friendly console logger writing to w.
func New(w io.Writer) *zap.Logger {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = "ts"
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(w),
		zapcore.InfoLevel,
	)
	return zap.New(core)
}

// Noop returns a logger that discards everything, for tests and for
// callers that don't want fshlint's internals writing anywhere.
func Noop() *zap.Logger {
	return zap.NewNop()
}
