package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/util/traceutil"
)

type LogAble interface {
	Logger() *zap.Logger
}

// Logger logs every request and the status written for it.
type Logger struct {
	LogAble
}

func (l Logger) log(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := l.logger()
		if !logger.Core().Enabled(zap.DebugLevel) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logger.Debug("handler log", traceutil.TraceLogField(r.Context()),
			zap.String("method", r.Method), zap.String("path", r.URL.Path),
			zap.Int("status", sw.status), zap.Duration("cost", time.Since(start)))
	})
}

func (l Logger) logger() *zap.Logger {
	if l.LogAble.Logger() != nil {
		return l.LogAble.Logger()
	}
	return zap.NewNop()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
