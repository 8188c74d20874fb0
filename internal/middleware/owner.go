package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RequireOwner returns middleware for routes that carry a {user_id} path
// segment. Authenticated callers may only touch their own path; the demo
// owner adopts whatever id the path names, so separate browser profiles get
// separate task lists on an unauthenticated deployment.
func RequireOwner(demoOwner string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pathOwner := chi.URLParam(r, "user_id")
			if pathOwner == "" {
				next.ServeHTTP(w, r)
				return
			}

			current := OwnerFromContext(r.Context())
			if current == "" {
				writeAuthError(w, "authorization required")
				return
			}
			if current != demoOwner && current != pathOwner {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"detail":"Access denied: Cannot access another user's tasks"}`))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), pathOwner)))
		})
	}
}
