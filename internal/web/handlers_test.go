package web_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garage/internal/auth"
	"garage/internal/car"
	"garage/internal/session"
	"garage/internal/web"
)

var csrfTokenRe = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

// userRecord mirrors a row of the users table for the fake database.
type userRecord struct {
	id           int64
	username     string
	email        string
	passwordHash string
	role         string
}

// fakeDB backs the real credential repository with in-memory rows so the
// full registration and login paths run against the handlers.
type fakeDB struct {
	records []userRecord
	nextID  int64
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("unexpected query: %s", sql)
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	switch {
	case strings.HasPrefix(sql, "INSERT"):
		f.nextID++
		f.records = append(f.records, userRecord{
			id:           f.nextID,
			username:     args[0].(string),
			email:        args[1].(string),
			passwordHash: args[2].(string),
			role:         fmt.Sprint(args[3]),
		})
		return fakeRow{vals: []any{f.nextID}}
	case strings.HasPrefix(sql, "SELECT"):
		email := args[0].(string)
		for _, rec := range f.records {
			if rec.email == email {
				return fakeRow{vals: []any{rec.id, rec.username, rec.email, rec.passwordHash, rec.role}}
			}
		}
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{err: fmt.Errorf("unexpected query row: %s", sql)}
}

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.vals) {
		return errors.New("scan arity mismatch")
	}
	for i, d := range dest {
		switch d := d.(type) {
		case *int64:
			*d = r.vals[i].(int64)
		case *string:
			*d = r.vals[i].(string)
		case *session.Role:
			*d = session.Role(r.vals[i].(string))
		default:
			return fmt.Errorf("unsupported scan destination %T", d)
		}
	}
	return nil
}

// fakeCars serves a fixed fleet.
type fakeCars struct {
	cars []car.Car
}

func (f *fakeCars) List(ctx context.Context) ([]car.Car, error) { return f.cars, nil }

func (f *fakeCars) Find(ctx context.Context, id int64) (*car.Car, error) {
	for _, c := range f.cars {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

type testApp struct {
	srv   *httptest.Server
	users *auth.Repository
}

func newTestApp(t *testing.T, checks ...web.HealthFunc) *testApp {
	t.Helper()

	tmpl, err := web.LoadTemplates()
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := session.NewManager(session.NewMemoryStore(), session.Config{
		CookieName:    "session",
		TTL:           time.Hour,
		TouchInterval: 5 * time.Minute,
	})

	users := auth.NewRepository(&fakeDB{})
	cars := &fakeCars{cars: []car.Car{
		{ID: 1, Make: "Toyota", Model: "Corolla", Year: 2019, CreatedAt: time.Now()},
		{ID: 2, Make: "Honda", Model: "Civic", Year: 2021, CreatedAt: time.Now()},
	}}

	h := web.NewHandlers(users, cars, tmpl, log)
	srv := httptest.NewServer(web.NewRouter(h, mgr, log, false, checks...))
	t.Cleanup(srv.Close)

	return &testApp{srv: srv, users: users}
}

// client returns an HTTP client with its own cookie jar, i.e. a browser.
func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

// seedUser registers a user directly through the repository.
func (a *testApp) seedUser(t *testing.T, username, email, plaintext string) *auth.User {
	t.Helper()
	var u auth.User
	require.NoError(t, u.SetUsername(username))
	require.NoError(t, u.SetEmail(email))
	require.NoError(t, u.SetPassword(plaintext))
	require.NoError(t, a.users.Save(context.Background(), &u))
	return &u
}

// getPage fetches a page and returns its body.
func getPage(t *testing.T, c *http.Client, rawURL string) string {
	t.Helper()
	resp, err := c.Get(rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

// csrfToken extracts the hidden form token from a rendered page.
func csrfToken(t *testing.T, body string) string {
	t.Helper()
	m := csrfTokenRe.FindStringSubmatch(body)
	require.Len(t, m, 2, "page should carry a csrf token")
	return m[1]
}

// login walks the full form flow and leaves the client authenticated.
func (a *testApp) login(t *testing.T, c *http.Client, email, plaintext string) {
	t.Helper()
	token := csrfToken(t, getPage(t, c, a.srv.URL+"/login"))
	resp, err := c.PostForm(a.srv.URL+"/login", url.Values{
		"csrf_token": {token},
		"email":      {email},
		"password":   {plaintext},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/cars", resp.Request.URL.Path)
}

func TestLoginFlow(t *testing.T) {
	t.Parallel()

	t.Run("valid credentials land on the cars page", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		app.seedUser(t, "margo", "margo@example.com", "valid password")
		c := app.client(t)

		app.login(t, c, "margo@example.com", "valid password")

		body := getPage(t, c, app.srv.URL+"/cars")
		assert.Contains(t, body, "margo")
		assert.Contains(t, body, "Corolla")
	})

	t.Run("wrong password re-renders with a generic message", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		app.seedUser(t, "margo", "margo@example.com", "valid password")
		c := app.client(t)

		token := csrfToken(t, getPage(t, c, app.srv.URL+"/login"))
		resp, err := c.PostForm(app.srv.URL+"/login", url.Values{
			"csrf_token": {token},
			"email":      {"margo@example.com"},
			"password":   {"wrong password"},
		})
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, "/login", resp.Request.URL.Path)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "Invalid email or password.")
		assert.Contains(t, string(body), `value="margo@example.com"`, "email is echoed back")
		assert.NotContains(t, string(body), "valid password")
	})

	t.Run("unknown email yields the same message", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		c := app.client(t)

		token := csrfToken(t, getPage(t, c, app.srv.URL+"/login"))
		resp, err := c.PostForm(app.srv.URL+"/login", url.Values{
			"csrf_token": {token},
			"email":      {"nobody@example.com"},
			"password":   {"whatever password"},
		})
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "Invalid email or password.")
	})

	t.Run("a stale token from an earlier render is rejected", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		app.seedUser(t, "margo", "margo@example.com", "valid password")
		c := app.client(t)

		stale := csrfToken(t, getPage(t, c, app.srv.URL+"/login"))
		getPage(t, c, app.srv.URL+"/login") // second render supersedes the token

		resp, err := c.PostForm(app.srv.URL+"/login", url.Values{
			"csrf_token": {stale},
			"email":      {"margo@example.com"},
			"password":   {"valid password"},
		})
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestRegisterFlow(t *testing.T) {
	t.Parallel()

	t.Run("valid registration logs the user in", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		c := app.client(t)

		token := csrfToken(t, getPage(t, c, app.srv.URL+"/register"))
		resp, err := c.PostForm(app.srv.URL+"/register", url.Values{
			"csrf_token":       {token},
			"username":         {"newcomer"},
			"email":            {"newcomer@example.com"},
			"password":         {"long enough"},
			"password_confirm": {"long enough"},
		})
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "/cars", resp.Request.URL.Path)

		saved, err := app.users.FindByEmail(context.Background(), "newcomer@example.com")
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, "newcomer", saved.Username())
	})

	t.Run("validation failures re-render with field messages", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		c := app.client(t)

		token := csrfToken(t, getPage(t, c, app.srv.URL+"/register"))
		resp, err := c.PostForm(app.srv.URL+"/register", url.Values{
			"csrf_token":       {token},
			"username":         {"newcomer"},
			"email":            {"not-an-email"},
			"password":         {"short"},
			"password_confirm": {"different"},
		})
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "email address is not valid")
		assert.Contains(t, string(body), "password must be at least 9 characters")
		assert.Contains(t, string(body), "passwords do not match")
		assert.Contains(t, string(body), `value="newcomer"`, "username is echoed back")
	})

	t.Run("duplicate email is reported as a field error", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		app.seedUser(t, "margo", "taken@example.com", "valid password")
		c := app.client(t)

		token := csrfToken(t, getPage(t, c, app.srv.URL+"/register"))
		resp, err := c.PostForm(app.srv.URL+"/register", url.Values{
			"csrf_token":       {token},
			"username":         {"newcomer"},
			"email":            {"taken@example.com"},
			"password":         {"long enough"},
			"password_confirm": {"long enough"},
		})
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "already in use")
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	t.Run("valid logout destroys the session", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		app.seedUser(t, "margo", "margo@example.com", "valid password")
		c := app.client(t)
		app.login(t, c, "margo@example.com", "valid password")

		token := csrfToken(t, getPage(t, c, app.srv.URL+"/cars"))
		resp, err := c.PostForm(app.srv.URL+"/logout", url.Values{"csrf_token": {token}})
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "/login", resp.Request.URL.Path)

		// The session record is gone, not just anonymized.
		resp2, err := c.Get(app.srv.URL + "/cars")
		require.NoError(t, err)
		defer resp2.Body.Close()
		assert.Equal(t, "/login", resp2.Request.URL.Path)
	})

	t.Run("missing token leaves the session authenticated", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		app.seedUser(t, "margo", "margo@example.com", "valid password")
		c := app.client(t)
		app.login(t, c, "margo@example.com", "valid password")

		resp, err := c.PostForm(app.srv.URL+"/logout", url.Values{})
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		body := getPage(t, c, app.srv.URL+"/cars")
		assert.Contains(t, body, "margo", "still logged in")
	})
}

func TestGuardedPages(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	t.Run("anonymous visitors are sent to the login form", func(t *testing.T) {
		t.Parallel()

		c := app.client(t)
		for _, path := range []string{"/cars", "/cars/1"} {
			resp, err := c.Get(app.srv.URL + path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, "/login", resp.Request.URL.Path, path)
		}
	})

	t.Run("login page redirects authenticated users to cars", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t)
		app.seedUser(t, "margo", "margo@example.com", "valid password")
		c := app.client(t)
		app.login(t, c, "margo@example.com", "valid password")

		resp, err := c.Get(app.srv.URL + "/login")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, "/cars", resp.Request.URL.Path)
	})
}

func TestCarPages(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	app.seedUser(t, "margo", "margo@example.com", "valid password")

	t.Run("existing car renders its details", func(t *testing.T) {
		t.Parallel()

		c := app.client(t)
		app.login(t, c, "margo@example.com", "valid password")

		body := getPage(t, c, app.srv.URL+"/cars/2")
		assert.Contains(t, body, "Honda")
		assert.Contains(t, body, "Civic")
	})

	t.Run("unknown and malformed ids are a 404", func(t *testing.T) {
		t.Parallel()

		c := app.client(t)
		app.login(t, c, "margo@example.com", "valid password")

		for _, path := range []string{"/cars/99", "/cars/abc"} {
			resp, err := c.Get(app.srv.URL + path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		}
	})
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	t.Run("healthy checks report ok", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t, func(ctx context.Context) error { return nil })
		resp, err := app.client(t).Get(app.srv.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "ok", string(body))
	})

	t.Run("failing check is 503", func(t *testing.T) {
		t.Parallel()

		app := newTestApp(t, func(ctx context.Context) error { return errors.New("pool exhausted") })
		resp, err := app.client(t).Get(app.srv.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestErrorPages(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)

	t.Run("unknown path renders the 404 page", func(t *testing.T) {
		t.Parallel()

		c := app.client(t)
		resp, err := c.Get(app.srv.URL + "/no-such-page")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "404")
	})

	t.Run("wrong method yields 405 with Allow", func(t *testing.T) {
		t.Parallel()

		req, err := http.NewRequest(http.MethodPut, app.srv.URL+"/login", nil)
		require.NoError(t, err)
		resp, err := app.client(t).Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		assert.ElementsMatch(t,
			[]string{"GET", "POST"},
			strings.Split(resp.Header.Get("Allow"), ", "),
		)
	})
}
