package session

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence interface for sessions. Implementations must
// serialize reads and writes for a given session so overlapping requests
// from one client never lose updates.
type Store interface {
	GetByToken(ctx context.Context, token string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteExpired removes expired sessions and returns how many went away.
	DeleteExpired(ctx context.Context) (int64, error)
}
