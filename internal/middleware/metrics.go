package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// RequestRecorder receives one observation per finished request.
type RequestRecorder interface {
	RecordRequest(route, method string, statusCode int, duration time.Duration)
}

// RequestMetrics labels requests by chi route pattern, so /api/animals/{id}
// is one series regardless of the id.
func RequestMetrics(rec RequestRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := wrapWriter(w)
			next.ServeHTTP(sr, r)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			rec.RecordRequest(route, r.Method, sr.statusCode, time.Since(start))
		})
	}
}
