package router

import (
	"net/http"
	"runtime/debug"
	"strings"
)

// ServeHTTP dispatches one request end-to-end: route resolution, handler
// invocation inside the panic boundary, and uniform error translation.
// Handlers never write status codes for unexpected failures themselves;
// anything they do not handle ends up in the error handler here.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ww := newResponseWriter(w)

	// Resolve owns percent-decoding, so it must see the path encoded
	// exactly once. EscapedPath returns the original RawPath when valid
	// and re-encodes the decoded Path otherwise, never a decoded form.
	path := r.URL.EscapedPath()
	if path == "" {
		path = "/"
	}

	m := rt.Resolve(r.Method, path)
	ctx := newContext(ww, r, m.Params)

	defer func() {
		if p := recover(); p != nil {
			perr := &panicError{value: p, stack: debug.Stack()}
			if ww.Written() {
				// Too late for an error response; record and move on.
				rt.logger.Error("panic after response written",
					"value", perr.value,
					"stack", string(perr.stack),
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
				)
				return
			}
			rt.errorHandler(ctx, perr)
		}
	}()

	switch m.Kind {
	case MatchNotFound:
		rt.errorHandler(ctx, ErrNotFound)
		return
	case MatchMethodNotAllowed:
		// Allow header per RFC 9110 before the 405 body.
		ww.Header().Set("Allow", strings.Join(m.Allowed, ", "))
		rt.errorHandler(ctx, ErrMethodNotAllowed)
		return
	}

	fn := m.Handler
	if len(rt.middlewares) > 0 {
		fn = chain(rt.middlewares, fn)
	}

	response := fn(ctx)
	if response == nil {
		rt.errorHandler(ctx, ErrNilResponse)
		return
	}

	if err := response(ww, r); err != nil {
		if ww.Written() {
			rt.logger.Error("response failed after headers were sent",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
			)
			return
		}
		rt.errorHandler(ctx, err)
	}
}
