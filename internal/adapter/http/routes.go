package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taskchat/taskchat/internal/config"
	"github.com/taskchat/taskchat/internal/domain/user"
	"github.com/taskchat/taskchat/internal/middleware"
	"github.com/taskchat/taskchat/internal/port/cache"
)

// MountRoutes registers the API routes on the given chi router. replay may
// be nil, in which case Idempotency-Key replay is disabled.
func MountRoutes(r chi.Router, h *Handlers, authCfg config.Auth, replay cache.Cache, replayTTL time.Duration) {
	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	auth := middleware.Auth(h.Auth, authCfg.DemoUser)

	r.Route("/api", func(r chi.Router) {
		// Version probe; the static segment takes precedence over the
		// {user_id} match below.
		r.Get("/v1/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{
				"service": "taskchat",
				"version": h.Version,
			})
		})

		// Login is the only public API route; everything else resolves
		// identity first.
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Get("/auth/me", h.Me)

			// User administration requires a real admin token; the demo
			// owner never reaches these.
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(user.RoleAdmin))
				r.Get("/users", h.ListUsers)
				r.Post("/users", h.Register)
			})

			// Owner-scoped surface. The path owner must match the token
			// owner; static segments above win over the {user_id} match.
			r.Route("/{user_id}", func(r chi.Router) {
				r.Use(middleware.RequireOwner(authCfg.DemoUser))
				if replay != nil {
					r.Use(middleware.Idempotency(replay, replayTTL))
				}

				r.Post("/chat", h.Chat)

				r.Get("/tasks", h.ListTasks)
				r.Post("/tasks", h.CreateTask)
				r.Get("/tasks/{task_id}", h.GetTask)
				r.Put("/tasks/{task_id}", h.UpdateTask)
				r.Patch("/tasks/{task_id}/complete", h.CompleteTask)
				r.Delete("/tasks/{task_id}", h.DeleteTask)

				r.Get("/conversations", h.ListConversations)
				r.Get("/conversations/{conversation_id}/messages", h.ListConversationMessages)
				r.Delete("/conversations/{conversation_id}", h.DeleteConversation)
			})
		})
	})
}
