package web

import (
	"errors"
	"net/http"

	"garage/internal/auth"
	"garage/internal/csrf"
	"garage/internal/logger"
	"garage/internal/response"
	"garage/internal/router"
)

// LoginPageData feeds the login template. Email is echoed back on a
// failed attempt; the password never is.
type LoginPageData struct {
	pageMeta
	Error string
	Email string
}

// RegisterPageData feeds the registration template.
type RegisterPageData struct {
	pageMeta
	Error       string
	FieldErrors map[string]string
	Username    string
	Email       string
}

// loginMeta issues a fresh CSRF token for the login or registration
// form; every render supersedes the previous token.
func loginMeta(ctx *router.Context, title string) (pageMeta, error) {
	m := pageMeta{Title: title}
	sess := Session(ctx)
	if sess == nil {
		return m, nil
	}
	token, err := csrf.Generate(sess)
	if err != nil {
		return m, err
	}
	m.CSRFToken = token
	return m, nil
}

// ShowLogin renders the login form. Authenticated users are sent to the
// cars page instead.
func (h *Handlers) ShowLogin(ctx *router.Context) router.Response {
	if sess := Session(ctx); sess != nil && sess.IsAuthenticated() {
		return response.RedirectSeeOther("/cars")
	}
	m, err := loginMeta(ctx, "Log in")
	if err != nil {
		return response.Error(err)
	}
	return response.Template(h.tmpl.Login, LoginPageData{pageMeta: m})
}

// Login processes the login form: CSRF check first, then credential
// verification. A failed attempt re-renders the form with one generic
// message (never revealing whether the email exists) and a freshly
// rotated token. Success adopts the identity and rotates the session
// token.
func (h *Handlers) Login(ctx *router.Context) router.Response {
	sess := Session(ctx)
	r := ctx.Request()

	if !csrf.Validate(sess, r.FormValue("csrf_token")) {
		return response.Error(response.ErrForbidden.WithMessage("The form has expired, go back and try again."))
	}

	email := r.FormValue("email")
	user, err := h.users.Authenticate(ctx, email, r.FormValue("password"))
	if err != nil {
		return response.Error(err)
	}

	if user == nil {
		h.log.InfoContext(ctx, "login rejected", logger.Component("auth"), logger.Event("login_failed"))
		m, merr := loginMeta(ctx, "Log in")
		if merr != nil {
			return response.Error(merr)
		}
		return response.Template(h.tmpl.Login, LoginPageData{
			pageMeta: m,
			Error:    "Invalid email or password.",
			Email:    email,
		})
	}

	if err := sess.Authenticate(user.ID(), user.Username(), sessionRole(user)); err != nil {
		return response.Error(err)
	}

	h.log.InfoContext(ctx, "user logged in",
		logger.Component("auth"), logger.Event("login"), logger.UserID(user.ID()))
	return response.RedirectSeeOther("/cars")
}

// ShowRegister renders the registration form.
func (h *Handlers) ShowRegister(ctx *router.Context) router.Response {
	if sess := Session(ctx); sess != nil && sess.IsAuthenticated() {
		return response.RedirectSeeOther("/cars")
	}
	m, err := loginMeta(ctx, "Register")
	if err != nil {
		return response.Error(err)
	}
	return response.Template(h.tmpl.Register, RegisterPageData{pageMeta: m})
}

// Register processes the registration form. Field validation failures
// re-render the form with per-field messages and the input echoed back,
// except the password. A successful save logs the new user in.
func (h *Handlers) Register(ctx *router.Context) router.Response {
	sess := Session(ctx)
	r := ctx.Request()

	if !csrf.Validate(sess, r.FormValue("csrf_token")) {
		return response.Error(response.ErrForbidden.WithMessage("The form has expired, go back and try again."))
	}

	username := r.FormValue("username")
	email := r.FormValue("email")

	rerender := func(general string, fields map[string]string) router.Response {
		m, merr := loginMeta(ctx, "Register")
		if merr != nil {
			return response.Error(merr)
		}
		return response.TemplateWithStatus(h.tmpl.Register, RegisterPageData{
			pageMeta:    m,
			Error:       general,
			FieldErrors: fields,
			Username:    username,
			Email:       email,
		}, http.StatusUnprocessableEntity)
	}

	var user auth.User
	fields := make(map[string]string)
	collect := func(err error) error {
		var verr *auth.ValidationError
		if errors.As(err, &verr) {
			fields[verr.Field] = verr.Message
			return nil
		}
		return err
	}

	if err := collect(user.SetUsername(username)); err != nil {
		return response.Error(err)
	}
	if err := collect(user.SetEmail(email)); err != nil {
		return response.Error(err)
	}
	if err := collect(user.SetPassword(r.FormValue("password"))); err != nil {
		return response.Error(err)
	}
	if r.FormValue("password") != r.FormValue("password_confirm") {
		fields["password_confirm"] = "passwords do not match"
	}
	if len(fields) > 0 {
		return rerender("", fields)
	}

	existing, err := h.users.FindByEmail(ctx, user.Email())
	if err != nil {
		return response.Error(err)
	}
	if existing != nil {
		fields["email"] = "this email address is already in use"
		return rerender("", fields)
	}

	if err := h.users.Save(ctx, &user); err != nil {
		return response.Error(err)
	}

	if err := sess.Authenticate(user.ID(), user.Username(), sessionRole(&user)); err != nil {
		return response.Error(err)
	}

	h.log.InfoContext(ctx, "user registered",
		logger.Component("auth"), logger.Event("register"), logger.UserID(user.ID()))
	return response.RedirectSeeOther("/cars")
}

// Logout destroys the whole session record so its identifier can never
// be replayed, then sends the browser back to the login page. The CSRF
// check runs before the destruction: an invalid token leaves the session
// authenticated and untouched.
func (h *Handlers) Logout(ctx *router.Context) router.Response {
	sess := Session(ctx)

	if !csrf.Validate(sess, ctx.Request().FormValue("csrf_token")) {
		return response.Error(response.ErrForbidden.WithMessage("The form has expired, go back and try again."))
	}

	sess.Logout()
	return response.RedirectSeeOther("/login")
}
