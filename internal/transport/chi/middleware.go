package chi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/kbassist/internal/logger"
)

// RequestIDHeader echoes the request id assigned by chi's RequestID middleware.
const RequestIDHeader = "X-Request-ID"

// Recoverer turns handler panics into a logged 500 with the API's JSON error body.
// http.ErrAbortHandler is re-raised so the server aborts the response as usual.
func Recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
					panic(rvr)
				}
				logger.Error("handler panicked",
					zap.Any("panic", rvr),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLog attaches a request-scoped logger to the context and emits one summary
// line per request once the handler returns. Handlers add fields with logger.WithFields.
func RequestLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqID := chimw.GetReqID(r.Context())
			if reqID != "" {
				w.Header().Set(RequestIDHeader, reqID)
			}

			ctx := logpkg.ContextWithLogger(r.Context(), logger)
			if reqID != "" {
				ctx = logpkg.WithFields(ctx, zap.String("request_id", reqID))
			}

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("route", routePattern(r)),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
				zap.Int("bytes", ww.BytesWritten()),
				zap.String("remote", r.RemoteAddr),
			}

			l := logpkg.FromContext(ctx)
			switch {
			case status >= http.StatusInternalServerError:
				l.Error("request", fields...)
			case r.URL.Path == "/health" || r.URL.Path == "/metrics":
				l.Debug("request", fields...)
			default:
				l.Info("request", fields...)
			}
		})
	}
}

// routePattern is the matched chi pattern, filled in after routing completes.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
