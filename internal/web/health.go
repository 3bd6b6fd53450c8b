package web

import (
	"context"

	"garage/internal/response"
	"garage/internal/router"
)

// HealthFunc reports whether a dependency is ready to serve.
type HealthFunc func(ctx context.Context) error

// Healthz builds the readiness handler: plain "ok" while every check
// passes, 503 as soon as one fails.
func Healthz(checks ...HealthFunc) router.HandlerFunc {
	return func(ctx *router.Context) router.Response {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return response.Error(response.ErrServiceUnavailable.WithMessage("A dependency is not ready."))
			}
		}
		return response.String("ok")
	}
}
