package logutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogPanicAndExit(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	obsZapCore, obsLogs := observer.New(zap.InfoLevel)
	obsLogger := zap.New(obsZapCore, zap.WithFatalHook(zapcore.WriteThenPanic))

	logPanic := func() {
		defer LogPanicAndExit(obsLogger)
		panic("test panic here")
	}

	recovered := make(chan interface{})
	go func() {
		defer func() {
			recovered <- recover()
		}()
		logPanic()
	}()
	<-recovered

	re.Equal([]observer.LoggedEntry{{
		Entry: zapcore.Entry{Level: zapcore.FatalLevel, Message: "panic and exit"},
		Context: []zapcore.Field{{
			Key:       "recover",
			Type:      zapcore.ReflectType,
			Interface: "test panic here",
		}},
	}}, obsLogs.AllUntimed())
}

func TestLogPanicAndRecover(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	obsZapCore, obsLogs := observer.New(zap.InfoLevel)
	obsLogger := zap.New(obsZapCore)

	var recovered interface{}
	func() {
		defer LogPanicAndRecover(obsLogger, func(e any) { recovered = e })
		panic("test panic here")
	}()

	re.Equal("test panic here", recovered)
	re.Equal(1, obsLogs.FilterMessage("panic recovered").FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestLogPanicAndRecover_Ignored(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	obsZapCore, obsLogs := observer.New(zap.InfoLevel)
	obsLogger := zap.New(obsZapCore)

	errAbort := errors.New("abort")
	called := false
	repanicked := func() (r interface{}) {
		defer func() { r = recover() }()
		defer LogPanicAndRecover(obsLogger, func(any) { called = true }, errAbort)
		panic(errAbort)
	}()

	re.Equal(errAbort, repanicked)
	re.False(called)
	re.Zero(obsLogs.Len())
}

func TestIncreaseLevel(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	obsZapCore, obsLogs := observer.New(zap.DebugLevel)
	logger := IncreaseLevel(zap.New(obsZapCore), zapcore.WarnLevel)

	logger.Info("dropped")
	logger.Warn("kept")

	re.Equal(1, obsLogs.Len())
	re.Equal("kept", obsLogs.All()[0].Message)
}
