package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix = "session:token:"
	idKeyPrefix    = "session:id:"
)

// RedisStore persists sessions in Redis as JSON values keyed by token,
// with an id-to-token index so logout can destroy a record by session ID.
// Redis serializes commands per connection, satisfying the Store
// contract's per-session ordering requirement; expiry is delegated to
// key TTLs.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a session store backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// GetByToken loads and decodes the session bound to the token.
func (s *RedisStore) GetByToken(ctx context.Context, token string) (*Session, error) {
	raw, err := s.client.Get(ctx, tokenKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Save writes the session under its token and updates the id index,
// dropping the previous token key when the token rotated.
func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return ErrExpired
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	idKey := idKeyPrefix + sess.ID.String()

	prevToken, err := s.client.Get(ctx, idKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := s.client.TxPipeline()
	if prevToken != "" && prevToken != sess.Token {
		pipe.Del(ctx, tokenKeyPrefix+prevToken)
	}
	pipe.Set(ctx, tokenKeyPrefix+sess.Token, raw, ttl)
	pipe.Set(ctx, idKey, sess.Token, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Delete destroys the session record and both its keys.
func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	idKey := idKeyPrefix + id.String()

	token, err := s.client.Get(ctx, idKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return err
	}

	_, err = s.client.Del(ctx, tokenKeyPrefix+token, idKey).Result()
	return err
}

// DeleteExpired is a no-op for Redis: key TTLs already evict expired
// sessions.
func (s *RedisStore) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}
