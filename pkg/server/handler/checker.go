package handler

import (
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hotelbook/booking-server/pkg/util/logutil"
	"github.com/hotelbook/booking-server/pkg/util/traceutil"
)

const _traceIDHeader = "X-Request-ID"

var errNotRunning = errors.New("server is not running")

// Checker rejects requests before they reach the cluster.
type Checker struct {
	Handler *Handler
}

// check returns 503 if the cluster is not running.
func (c Checker) check(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.Handler.c.IsRunning() {
			c.Handler.writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"error": errNotRunning.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// trace attaches the request id, or a new one, to the request context and the response.
func (h *Handler) trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := traceutil.EnsureTraceID(r.Context(), r.Header.Get(_traceIDHeader))
		w.Header().Set(_traceIDHeader, traceutil.TraceID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoverPanic turns a panic in a handler into a 500.
func (h *Handler) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := h.lg.With(traceutil.TraceLogField(r.Context()), zap.String("path", r.URL.Path))
		defer logutil.LogPanicAndRecover(logger, func(e any) {
			h.fail(w, r, errors.Errorf("panic: %v", e))
		}, http.ErrAbortHandler)
		next.ServeHTTP(w, r)
	})
}

// authenticate requires a valid session token and puts its user id into the request context.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, err := h.c.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			h.fail(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), uid)))
	})
}
