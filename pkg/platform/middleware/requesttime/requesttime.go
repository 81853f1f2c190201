// Package requesttime pins one "now" per HTTP request so every timestamp a
// command writes (session creation, submission, approval) agrees.
package requesttime

import (
	"net/http"
	"time"

	"campus/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return MiddlewareWithClock(time.Now)(next)
}

// MiddlewareWithClock uses clock instead of the wall clock.
func MiddlewareWithClock(clock func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), clock().UTC())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
