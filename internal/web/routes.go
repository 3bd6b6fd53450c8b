package web

import (
	"log/slog"

	"garage/internal/router"
	"garage/internal/session"
)

// NewRouter builds the application's route table. Registration happens
// once here, before any request is served.
func NewRouter(h *Handlers, mgr *session.Manager, log *slog.Logger, debug bool, checks ...HealthFunc) *router.Router {
	rt := router.New(
		router.WithErrorHandler(ErrorHandler(h.tmpl.Error, log, debug)),
		router.WithMiddleware(Sessions(mgr, log)),
		router.WithLogger(log),
	)

	rt.Get("/", h.Home)
	rt.Get("/healthz", Healthz(checks...))
	rt.Get("/login", h.ShowLogin)
	rt.Post("/login", h.Login)
	rt.Get("/register", h.ShowRegister)
	rt.Post("/register", h.Register)
	rt.Post("/logout", RequireAuth(h.Logout))
	rt.Get("/cars", RequireAuth(h.ListCars))
	rt.Get("/cars/{id}", RequireAuth(h.ShowCar))

	return rt
}
