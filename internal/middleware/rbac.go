package middleware

import (
	"net/http"

	"github.com/taskchat/taskchat/internal/domain/user"
)

// RequireRole returns middleware that restricts access to callers whose
// token carries one of the given roles. Demo requests have no token and are
// always rejected here.
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	allowed := make(map[user.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				writeAuthError(w, "authorization required")
				return
			}

			if !allowed[claims.Role] {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"detail":"forbidden"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
