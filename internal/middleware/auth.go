package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taskchat/taskchat/internal/domain"
	"github.com/taskchat/taskchat/internal/domain/user"
	"github.com/taskchat/taskchat/internal/service"
)

type claimsCtxKey struct{}
type ownerCtxKey struct{}

// Auth returns middleware that resolves the caller's identity. A bearer
// token binds the request to the token's user id. Requests that present no
// credentials at all fall back to the configured demo owner, so the bundled
// frontend works before a login service is wired up. A presented but
// unverifiable token is rejected; it never falls back.
func Auth(authSvc *service.AuthService, demoOwner string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if demoOwner == "" {
					writeAuthError(w, "authorization required")
					return
				}
				next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), demoOwner)))
				return
			}

			claims, err := authSvc.VerifyToken(token)
			if err != nil {
				writeAuthError(w, strings.TrimSuffix(err.Error(), ": "+domain.ErrUnauthorized.Error()))
				return
			}

			ctx := context.WithValue(r.Context(), claimsCtxKey{}, claims)
			next.ServeHTTP(w, r.WithContext(WithOwner(ctx, claims.UserID)))
		})
	}
}

// bearerToken extracts the credential from the Authorization header, or from
// the token query parameter for websocket upgrades where browsers cannot set
// headers.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token := strings.TrimPrefix(h, "Bearer "); token != h {
			return token
		}
		return h
	}
	if strings.HasSuffix(r.URL.Path, "/ws") {
		return r.URL.Query().Get("token")
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"detail":"` + detail + `"}`))
}

// WithOwner returns a context bound to the given owner id. Exposed so the
// MCP and A2A entry points can establish identity without an HTTP request.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerCtxKey{}, owner)
}

// OwnerFromContext returns the owner id the request is bound to, or "" when
// the auth middleware did not run.
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerCtxKey{}).(string)
	return owner
}

// ClaimsFromContext returns the verified token claims, or nil for demo
// requests that carried no token.
func ClaimsFromContext(ctx context.Context) *user.TokenClaims {
	claims, _ := ctx.Value(claimsCtxKey{}).(*user.TokenClaims)
	return claims
}
