package router

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Methods accepted at registration time. A request with any other
// method never matches, so it resolves to 405 when the path exists and
// 404 otherwise.
var methods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// segment is one element of a parsed route pattern. A non-empty param
// name marks a placeholder that matches any single path segment.
type segment struct {
	literal string
	param   string
}

type route struct {
	method   string
	pattern  string
	segments []segment
	handler  HandlerFunc
}

// Route describes a registered route, for introspection and logging.
type Route struct {
	Method  string
	Pattern string
}

// Router maps (method, path) pairs to handlers. The route table is built
// once at startup and never mutated afterwards; Resolve and ServeHTTP are
// safe for concurrent use once registration is done.
type Router struct {
	routes       []*route
	registered   map[string]struct{}
	middlewares  []Middleware
	errorHandler ErrorHandler
	logger       *slog.Logger
}

// Option configures the router.
type Option func(*Router)

// WithErrorHandler replaces the default plain-text error handler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(rt *Router) {
		if h != nil {
			rt.errorHandler = h
		}
	}
}

// WithMiddleware appends global middleware applied to every handler.
func WithMiddleware(mw ...Middleware) Option {
	return func(rt *Router) {
		rt.middlewares = append(rt.middlewares, mw...)
	}
}

// WithLogger sets the logger used for panics that occur after the
// response has already been written.
func WithLogger(log *slog.Logger) Option {
	return func(rt *Router) {
		if log != nil {
			rt.logger = log
		}
	}
}

// New creates an empty router.
func New(opts ...Option) *Router {
	rt := &Router{
		registered:   make(map[string]struct{}),
		errorHandler: defaultErrorHandler,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Get registers a handler for GET requests.
func (rt *Router) Get(pattern string, h HandlerFunc) { rt.Handle(http.MethodGet, pattern, h) }

// Post registers a handler for POST requests.
func (rt *Router) Post(pattern string, h HandlerFunc) { rt.Handle(http.MethodPost, pattern, h) }

// Put registers a handler for PUT requests.
func (rt *Router) Put(pattern string, h HandlerFunc) { rt.Handle(http.MethodPut, pattern, h) }

// Patch registers a handler for PATCH requests.
func (rt *Router) Patch(pattern string, h HandlerFunc) { rt.Handle(http.MethodPatch, pattern, h) }

// Delete registers a handler for DELETE requests.
func (rt *Router) Delete(pattern string, h HandlerFunc) { rt.Handle(http.MethodDelete, pattern, h) }

// Handle registers a handler for the given method and pattern. Patterns
// are absolute paths whose segments are either literals or {name}
// placeholders. Registration happens once at startup, so defects
// (bad method, bad pattern, duplicate registration) panic immediately.
func (rt *Router) Handle(method, pattern string, h HandlerFunc) {
	if _, ok := methods[method]; !ok {
		panic(fmt.Errorf("%w: %s", ErrInvalidMethod, method))
	}
	if h == nil {
		panic(fmt.Errorf("nil handler for %s %s", method, pattern))
	}

	segs, err := parsePattern(pattern)
	if err != nil {
		panic(err)
	}

	key := method + " " + pattern
	if _, dup := rt.registered[key]; dup {
		panic(fmt.Errorf("%w: %s %s", ErrDuplicateRoute, method, pattern))
	}
	rt.registered[key] = struct{}{}

	rt.routes = append(rt.routes, &route{
		method:   method,
		pattern:  pattern,
		segments: segs,
		handler:  h,
	})
}

// Routes returns all registered routes in registration order.
func (rt *Router) Routes() []Route {
	out := make([]Route, 0, len(rt.routes))
	for _, r := range rt.routes {
		out = append(out, Route{Method: r.method, Pattern: r.pattern})
	}
	return out
}

// MatchKind is the outcome of resolving a path against the route table.
type MatchKind uint8

const (
	MatchNotFound MatchKind = iota
	MatchFound
	MatchMethodNotAllowed
)

// Match is the result of Resolve. For MatchFound, Handler and Params are
// set; for MatchMethodNotAllowed, Allowed lists every method registered
// for the path.
type Match struct {
	Kind    MatchKind
	Handler HandlerFunc
	Params  map[string]string
	Allowed []string
}

// Resolve maps a method and raw URI path to a registered handler.
// The path is percent-decoded (malformed encoding resolves to not found,
// never an error) and the trailing slash is stripped except on the root.
// Routes are compared in registration order; the first route registered
// under the requested method wins. When the path matches only under other
// methods, the match reports every method that would have matched.
func (rt *Router) Resolve(method, path string) Match {
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return Match{Kind: MatchNotFound}
	}

	segs := splitPath(decoded)

	var allowed []string
	seen := make(map[string]struct{})

	for _, r := range rt.routes {
		params, ok := r.match(segs)
		if !ok {
			continue
		}
		if r.method == method {
			return Match{Kind: MatchFound, Handler: r.handler, Params: params, Allowed: nil}
		}
		if _, dup := seen[r.method]; !dup {
			seen[r.method] = struct{}{}
			allowed = append(allowed, r.method)
		}
	}

	if len(allowed) > 0 {
		return Match{Kind: MatchMethodNotAllowed, Allowed: allowed}
	}
	return Match{Kind: MatchNotFound}
}

// match compares the decoded path segments against the route pattern.
// Segment counts must be equal; placeholders capture their segment.
func (r *route) match(segs []string) (map[string]string, bool) {
	if len(segs) != len(r.segments) {
		return nil, false
	}

	var params map[string]string
	for i, ps := range r.segments {
		if ps.param != "" {
			if segs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[ps.param] = segs[i]
			continue
		}
		if ps.literal != segs[i] {
			return nil, false
		}
	}
	return params, true
}

// splitPath normalizes and splits a decoded path. The trailing slash is
// dropped except on the root, so "/cars/" and "/cars" resolve alike.
func splitPath(path string) []string {
	if path == "" || path == "/" {
		return nil
	}
	path = strings.TrimPrefix(path, "/")
	path = strings.TrimSuffix(path, "/")
	return strings.Split(path, "/")
}

// parsePattern validates a route pattern and splits it into segments.
func parsePattern(pattern string) ([]segment, error) {
	if pattern == "" || pattern[0] != '/' {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	if pattern == "/" {
		return nil, nil
	}

	parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(pattern, "/"), "/"), "/")
	segs := make([]segment, 0, len(parts))
	names := make(map[string]struct{})

	for _, p := range parts {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			name := p[1 : len(p)-1]
			if name == "" {
				return nil, fmt.Errorf("%w: empty placeholder in %q", ErrInvalidPattern, pattern)
			}
			if _, dup := names[name]; dup {
				return nil, fmt.Errorf("%w: duplicate placeholder %q in %q", ErrInvalidPattern, name, pattern)
			}
			names[name] = struct{}{}
			segs = append(segs, segment{param: name})
			continue
		}
		if p == "" || strings.ContainsAny(p, "{}") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
		segs = append(segs, segment{literal: p})
	}
	return segs, nil
}
