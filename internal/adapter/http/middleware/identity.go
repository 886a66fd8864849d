package middleware

import (
	"net/http"

	"github.com/villaridge/duespay/internal/domain"
)

// CallerIDHeader carries the opaque identity of the upstream caller.
// Authentication happens in the gateway in front of this service; here the
// ID is only propagated for audit attribution.
const CallerIDHeader = "X-Caller-Id"

// Identity attaches the caller identity from the request header to the
// request context.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(CallerIDHeader); id != "" {
			ctx := domain.WithCaller(r.Context(), domain.Caller{ID: id})
			r = r.WithContext(ctx)
		}

		next.ServeHTTP(w, r)
	})
}
