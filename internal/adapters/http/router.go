package http

import (
	"context"
	"net/http"

	"github.com/driftline/auth-service/internal/application"
	"github.com/go-chi/chi/v5"
)

// Handler is the HTTP adapter entrypoint for auth use-cases.
// Keeping only application dependencies here preserves clean adapter boundaries.
type Handler struct {
	service *application.Service
	cookies CookiePolicy
	readyFn func(ctx context.Context) error
}

// NewHandler constructs an HTTP handler bound to the application service.
// readyFn reports backing-store health for the readiness probe; nil means
// always ready.
func NewHandler(service *application.Service, cookies CookiePolicy, readyFn func(ctx context.Context) error) *Handler {
	return &Handler{service: service, cookies: cookies, readyFn: readyFn}
}

// NewRouter registers routes and the middleware stack. Admission runs before
// every handler, so a denied client never reaches credential evaluation; the
// auth routes carry the stricter budget.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/auth/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(handler.admission(application.AdmissionClassAuth))
			r.Post("/register", handler.register)
			r.Post("/login", handler.login)
		})

		r.Group(func(r chi.Router) {
			r.Use(handler.admission(application.AdmissionClassGeneral))
			r.Post("/logout", handler.logout)

			r.Group(func(r chi.Router) {
				r.Use(handler.authMiddleware)
				r.Get("/me", handler.me)
				r.Get("/sessions", handler.listSessions)
				r.Delete("/sessions/{session_id}", handler.revokeSession)
				r.Get("/login-history", handler.loginHistory)
			})
		})
	})

	return r
}
