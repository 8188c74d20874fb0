// Package middleware provides HTTP middleware for the taskchat API.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/taskchat/taskchat/internal/logger"
)

const headerRequestID = "X-Request-ID"

// RequestID is HTTP middleware that trusts an inbound X-Request-ID or mints
// a fresh UUID, binds it to the request context for log correlation, and
// echoes it on the response so clients can quote it in bug reports.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		ctx := logger.WithRequestID(r.Context(), id)
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
