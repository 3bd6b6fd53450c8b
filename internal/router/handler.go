package router

import "net/http"

// Response is a function that renders an HTTP response. It sets headers,
// status code, and writes the body. Rendering errors are passed to the
// router's error handler.
type Response func(w http.ResponseWriter, r *http.Request) error

// HandlerFunc handles a single request using the request-scoped context.
type HandlerFunc func(ctx *Context) Response

// ErrorHandler translates errors raised during request processing into
// HTTP responses. It is the single place where uncaught handler failures
// become status codes and error pages.
type ErrorHandler func(ctx *Context, err error)

// Middleware wraps handlers to add cross-cutting functionality.
type Middleware func(next HandlerFunc) HandlerFunc

// chain composes middlewares around the final handler, first middleware
// outermost.
func chain(middlewares []Middleware, h HandlerFunc) HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
