package router

import (
	"context"
	"net/http"
	"time"
)

// Context carries the request-scoped state handlers need: the request,
// the response writer, extracted path parameters, and arbitrary values
// set by middleware. A fresh Context is built for every request; nothing
// on it is shared across requests.
type Context struct {
	w      http.ResponseWriter
	r      *http.Request
	params map[string]string
}

func newContext(w http.ResponseWriter, r *http.Request, params map[string]string) *Context {
	return &Context{w: w, r: r, params: params}
}

// Request returns the underlying HTTP request.
func (c *Context) Request() *http.Request {
	return c.r
}

// ResponseWriter returns the underlying response writer.
func (c *Context) ResponseWriter() http.ResponseWriter {
	return c.w
}

// Param returns the path parameter captured for the given placeholder
// name, or the empty string if the route has no such placeholder.
func (c *Context) Param(key string) string {
	if c.params == nil {
		return ""
	}
	return c.params[key]
}

// SetValue stores a request-scoped value, typically from middleware.
func (c *Context) SetValue(key, val any) {
	c.r = c.r.WithContext(context.WithValue(c.r.Context(), key, val))
}

// Context implements context.Context by delegating to the request context,
// so handlers can pass the Context directly to blocking calls.

func (c *Context) Deadline() (time.Time, bool) { return c.r.Context().Deadline() }
func (c *Context) Done() <-chan struct{}       { return c.r.Context().Done() }
func (c *Context) Err() error                  { return c.r.Context().Err() }
func (c *Context) Value(key any) any           { return c.r.Context().Value(key) }
