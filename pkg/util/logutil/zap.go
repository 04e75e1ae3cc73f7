package logutil

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogPanicAndExit logs the panic reason and stack, then exit the process.
// Should be used with a `defer`.
func LogPanicAndExit(logger *zap.Logger) {
	if e := recover(); e != nil {
		logger.Fatal("panic and exit", zap.Reflect("recover", e))
	}
}

// LogPanicAndRecover logs the panic reason and stack, then calls f with the recovered value.
// Panics in ignored are neither logged nor recovered.
// Should be used with a `defer`.
func LogPanicAndRecover(logger *zap.Logger, f func(recovered any), ignored ...any) {
	e := recover()
	if e == nil {
		return
	}
	for _, i := range ignored {
		if e == i {
			panic(e)
		}
	}
	logger.Error("panic recovered", zap.Reflect("recover", e), zap.Stack("stack"))
	f(e)
}

// IncreaseLevel increases the log level of logger if the level is enabled.
func IncreaseLevel(logger *zap.Logger, level zapcore.Level) *zap.Logger {
	if logger.Core().Enabled(level) {
		return logger.WithOptions(zap.IncreaseLevel(level))
	}
	return logger
}
