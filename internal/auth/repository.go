package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"garage/internal/password"
	"garage/internal/session"
)

// DBTX is the persistence capability the repository needs: parameterized
// query execution. Both *pgxpool.Pool and pgx.Tx satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// decoyHash is a well-formed Argon2id hash verified against when an
// email lookup misses, so a failed login costs the same whether or not
// the address exists.
const decoyHash = "$argon2id$v=19$m=65536,t=2,p=2$c2FsdHNhbHRzYWx0c2FsdA$MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY"

// Repository persists credentials. All queries are parameterized; the
// primary key column is `id` throughout, reads and writes alike.
type Repository struct {
	db DBTX
}

// NewRepository creates a credential repository over the given database.
func NewRepository(db DBTX) *Repository {
	return &Repository{db: db}
}

// Save inserts the user when it has no id yet, adopting the generated
// one, and otherwise updates username, email, and role. The password
// hash is written only on insert; updating a credential never silently
// changes the password.
func (r *Repository) Save(ctx context.Context, u *User) error {
	if u.role == "" {
		u.role = session.RoleUser
	}

	if u.id == 0 {
		row := r.db.QueryRow(ctx,
			`INSERT INTO users (username, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id`,
			u.username, u.email, u.passwordHash, u.role,
		)
		return row.Scan(&u.id)
	}

	_, err := r.db.Exec(ctx,
		`UPDATE users SET username = $1, email = $2, role = $3 WHERE id = $4`,
		u.username, u.email, u.role, u.id,
	)
	return err
}

// FindByEmail returns the user with the given email, matched exactly on
// the normalized (lower-cased, trimmed) address, or nil when absent.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var u User
	row := r.db.QueryRow(ctx,
		`SELECT id, username, email, password_hash, role FROM users WHERE email = $1`,
		email,
	)
	if err := row.Scan(&u.id, &u.username, &u.email, &u.passwordHash, &u.role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Authenticate verifies the email and plaintext password pair. It
// returns nil for an unknown email and for a wrong password alike; the
// decoy verification keeps the two paths indistinguishable by timing.
func (r *Repository) Authenticate(ctx context.Context, email, plaintext string) (*User, error) {
	u, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		_, _ = password.Verify(plaintext, decoyHash)
		return nil, nil
	}

	ok, err := password.Verify(plaintext, u.passwordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return u, nil
}
