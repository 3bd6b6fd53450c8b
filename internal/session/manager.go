package session

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Config holds session manager settings loaded from the environment.
type Config struct {
	CookieName    string        `env:"SESSION_COOKIE_NAME" envDefault:"session"`
	TTL           time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	TouchInterval time.Duration `env:"SESSION_TOUCH_INTERVAL" envDefault:"5m"`
	CookieSecure  bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
}

// Manager owns the session lifecycle for HTTP requests: loading the
// session named by the cookie, creating one on first contact, persisting
// changes after the handler ran, and destroying the record plus cookie
// on logout.
type Manager struct {
	store         Store
	cookieName    string
	ttl           time.Duration
	touchInterval time.Duration
	secure        bool
}

// NewManager creates a session manager from configuration.
func NewManager(store Store, cfg Config) *Manager {
	return &Manager{
		store:         store,
		cookieName:    cfg.CookieName,
		ttl:           cfg.TTL,
		touchInterval: cfg.TouchInterval,
		secure:        cfg.CookieSecure,
	}
}

// Load returns the session for the request's cookie. A missing cookie,
// an unknown token, or an expired record all yield a fresh anonymous
// session; store outages propagate as errors.
func (m *Manager) Load(ctx context.Context, r *http.Request) (Session, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return New(m.ttl)
	}

	sess, err := m.store.GetByToken(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return New(m.ttl)
		}
		return Session{}, err
	}
	if sess.IsExpired() {
		return New(m.ttl)
	}
	return *sess, nil
}

// Save persists the session according to its state. Destroyed sessions
// are deleted from the store and the cookie is expired; modified ones
// are written and the cookie refreshed so rotated tokens reach the
// client.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess.IsDestroyed() {
		if err := m.store.Delete(ctx, sess.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return errors.Join(ErrDeleteSession, err)
		}
		m.clearCookie(w)
		return nil
	}

	sess.Touch(m.ttl, m.touchInterval)

	if !sess.IsModified() {
		return nil
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return errors.Join(ErrSaveSession, err)
	}
	m.setCookie(w, sess)
	return nil
}

// TTL returns the configured session time-to-live.
func (m *Manager) TTL() time.Duration { return m.ttl }

func (m *Manager) setCookie(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
