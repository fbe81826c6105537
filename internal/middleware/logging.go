// Package middleware holds the travel journal's own HTTP middleware. The
// generic pieces (request ids, real IP, panic recovery) come from
// github.com/go-chi/chi/v5/middleware and are mounted next to these in
// internal/server.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// quietPaths are logged at Debug when they succeed; probes hit them often.
var quietPaths = map[string]bool{
	"/healthz": true,
}

// Logger logs every completed request once, with the chi request id when
// RequestID runs earlier in the chain. 5xx responses log at Error and 4xx
// at Warn.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				// Handler wrote nothing at all; net/http sends 200.
				status = http.StatusOK
			}

			logger.LogAttrs(r.Context(), levelFor(r.URL.Path, status), "request completed",
				slog.String("requestID", chimiddleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("duration", time.Since(start)),
				slog.Int("bytes", ww.BytesWritten()),
				slog.String("remote", r.RemoteAddr),
			)
		})
	}
}

func levelFor(path string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	case quietPaths[path]:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
