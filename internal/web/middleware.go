package web

import (
	"log/slog"
	"net/http"

	"garage/internal/logger"
	"garage/internal/response"
	"garage/internal/router"
	"garage/internal/session"
)

type sessionKey struct{}

// Sessions loads the request's session before the handler runs and saves
// it just before the response body is rendered, so rotated tokens and
// destroyed sessions reach the client as Set-Cookie headers. Store
// outages propagate to the error boundary as unexpected failures.
func Sessions(mgr *session.Manager, log *slog.Logger) router.Middleware {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx *router.Context) router.Response {
			sess, err := mgr.Load(ctx, ctx.Request())
			if err != nil {
				return response.Error(err)
			}
			ctx.SetValue(sessionKey{}, &sess)

			resp := next(ctx)
			if resp == nil {
				return nil
			}

			return func(w http.ResponseWriter, r *http.Request) error {
				if err := mgr.Save(ctx, w, &sess); err != nil {
					log.ErrorContext(ctx, "failed to persist session",
						logger.Component("session"), logger.Error(err))
					return err
				}
				return resp(w, r)
			}
		}
	}
}

// Session returns the request's session, or nil when the Sessions
// middleware did not run.
func Session(ctx *router.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	return sess
}

// RequireAuth guards a handler that needs an authenticated identity.
// Anonymous requests are redirected to the login page; this is access
// control, not a failure, so nothing is logged.
func RequireAuth(next router.HandlerFunc) router.HandlerFunc {
	return func(ctx *router.Context) router.Response {
		sess := Session(ctx)
		if sess == nil || !sess.IsAuthenticated() {
			return response.RedirectSeeOther("/login")
		}
		return next(ctx)
	}
}
