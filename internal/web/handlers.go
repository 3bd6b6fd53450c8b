// Package web is the application layer: page handlers, the session
// middleware, and the error page renderer. Handlers consult the session
// for identity, the csrf package before any side effect, and the
// credential repository only during login and registration.
package web

import (
	"context"
	"log/slog"

	"garage/internal/auth"
	"garage/internal/car"
	"garage/internal/csrf"
	"garage/internal/response"
	"garage/internal/router"
	"garage/internal/session"
)

// UserStore is the credential persistence capability the handlers need.
type UserStore interface {
	Save(ctx context.Context, u *auth.User) error
	FindByEmail(ctx context.Context, email string) (*auth.User, error)
	Authenticate(ctx context.Context, email, password string) (*auth.User, error)
}

// CarStore is the car listing capability the handlers need.
type CarStore interface {
	List(ctx context.Context) ([]car.Car, error)
	Find(ctx context.Context, id int64) (*car.Car, error)
}

// Handlers wires the page handlers to their collaborators.
type Handlers struct {
	users UserStore
	cars  CarStore
	tmpl  *Templates
	log   *slog.Logger
}

// NewHandlers creates the application handler set.
func NewHandlers(users UserStore, cars CarStore, tmpl *Templates, log *slog.Logger) *Handlers {
	return &Handlers{users: users, cars: cars, tmpl: tmpl, log: log}
}

// pageMeta is the layout data every page shares: title, identity for the
// nav bar, and the CSRF token backing the logout form.
type pageMeta struct {
	Title     string
	LoggedIn  bool
	Username  string
	CSRFToken string
}

// meta fills the shared layout data from the session. Pages shown to an
// authenticated user carry a CSRF token for the logout form; issuing it
// here rotates the token on every render.
func (h *Handlers) meta(ctx *router.Context, title string) (pageMeta, error) {
	m := pageMeta{Title: title}
	sess := Session(ctx)
	if sess == nil || !sess.IsAuthenticated() {
		return m, nil
	}
	token, err := csrf.Generate(sess)
	if err != nil {
		return m, err
	}
	m.LoggedIn = true
	m.Username = sess.Username
	m.CSRFToken = token
	return m, nil
}

// HomePageData feeds the home template.
type HomePageData struct {
	pageMeta
}

// Home renders the public landing page.
func (h *Handlers) Home(ctx *router.Context) router.Response {
	m, err := h.meta(ctx, "Home")
	if err != nil {
		return response.Error(err)
	}
	return response.Template(h.tmpl.Home, HomePageData{pageMeta: m})
}

// sessionRole narrows a user's role for the session record.
func sessionRole(u *auth.User) session.Role {
	if u.Role().Valid() {
		return u.Role()
	}
	return session.RoleUser
}
