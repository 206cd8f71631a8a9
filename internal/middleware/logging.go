package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// requestInfo lets handlers deeper in the chain report back to the logger.
type requestInfo struct {
	userID string
}

type requestInfoKey struct{}

func requestInfoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

// routeLabel returns the matched route template, or "unmatched".
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// Logging returns a middleware that logs every request once it completes.
// It logs the method, route, status, user ID and duration.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			info := &requestInfo{}
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info)))

			attrs := []any{
				"method", r.Method,
				"route", routeLabel(r),
				"status", rec.status,
				"user_id", info.userID, // empty if pre-auth
				"duration_ms", time.Since(start).Milliseconds(),
			}
			switch {
			case rec.status >= 500:
				logger.ErrorContext(r.Context(), "Request failed", attrs...)
			case rec.status >= 400:
				logger.WarnContext(r.Context(), "Request rejected", attrs...)
			default:
				logger.InfoContext(r.Context(), "Request completed", attrs...)
			}
		})
	}
}
