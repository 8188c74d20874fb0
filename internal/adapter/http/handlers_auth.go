package http

import (
	"log/slog"
	"net/http"

	"github.com/taskchat/taskchat/internal/domain/user"
	"github.com/taskchat/taskchat/internal/middleware"
)

// Login handles POST /api/auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.LoginRequest](w, r)
	if !ok {
		return
	}

	resp, err := h.Auth.Login(r.Context(), req)
	if err != nil {
		slog.Debug("login failed", "email", req.Email, "error", err)
		writeDomainError(w, err, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/auth/me. Demo requests carry no token, so they get the
// owner id and nothing else.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"id": middleware.OwnerFromContext(r.Context()),
		})
		return
	}

	u, err := h.Auth.GetUser(r.Context(), claims.UserID)
	if err != nil {
		// The token may come from an external issuer whose users are not
		// in our table. Answer from the claims instead of failing.
		writeJSON(w, http.StatusOK, map[string]string{
			"id":    claims.UserID,
			"email": claims.Email,
			"name":  claims.Name,
			"role":  string(claims.Role),
		})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Register handles POST /api/auth/register. Restricted to admins by the
// route wiring; open registration is not offered.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.CreateRequest](w, r)
	if !ok {
		return
	}

	created, err := h.Auth.Register(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListUsers handles GET /api/admin/users.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Auth.ListUsers(r.Context())
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	if users == nil {
		users = []user.User{}
	}
	writeJSON(w, http.StatusOK, users)
}
