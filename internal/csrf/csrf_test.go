package csrf_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garage/internal/csrf"
	"garage/internal/session"
)

func newSession(t *testing.T) session.Session {
	t.Helper()
	sess, err := session.New(time.Hour)
	require.NoError(t, err)
	return sess
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("binds the token to the session", func(t *testing.T) {
		t.Parallel()

		sess := newSession(t)
		token, err := csrf.Generate(&sess)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, token, sess.CSRFToken)
	})

	t.Run("a new token supersedes the previous one", func(t *testing.T) {
		t.Parallel()

		sess := newSession(t)
		first, err := csrf.Generate(&sess)
		require.NoError(t, err)
		second, err := csrf.Generate(&sess)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
		assert.False(t, csrf.Validate(&sess, first))
		assert.True(t, csrf.Validate(&sess, second))
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("accepts only the session's own token", func(t *testing.T) {
		t.Parallel()

		sess := newSession(t)
		other := newSession(t)
		token, err := csrf.Generate(&sess)
		require.NoError(t, err)
		if _, err := csrf.Generate(&other); err != nil {
			t.Fatal(err)
		}

		assert.True(t, csrf.Validate(&sess, token))
		assert.False(t, csrf.Validate(&other, token))
	})

	t.Run("rejects empty and unset tokens", func(t *testing.T) {
		t.Parallel()

		sess := newSession(t)
		assert.False(t, csrf.Validate(&sess, ""), "no token issued yet")

		token, err := csrf.Generate(&sess)
		require.NoError(t, err)
		assert.False(t, csrf.Validate(&sess, ""))
		assert.True(t, csrf.Validate(&sess, token))
	})

	t.Run("rejects nil and destroyed sessions", func(t *testing.T) {
		t.Parallel()

		assert.False(t, csrf.Validate(nil, "anything"))

		sess := newSession(t)
		token, err := csrf.Generate(&sess)
		require.NoError(t, err)
		sess.Logout()
		assert.False(t, csrf.Validate(&sess, token))
	})
}
