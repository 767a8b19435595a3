package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// sessionKeyPrefix is the Redis key prefix for session tokens. The value
// stored under "auth_<token>" is the owning user's id.
const sessionKeyPrefix = "auth_"

// ErrNoSession is returned when a token does not map to a live session --
// never issued, already revoked, or expired. It is deliberately distinct
// from transport errors so callers can tell "nothing to revoke" apart from
// "Redis is down".
var ErrNoSession = errors.New("session not found")

// SessionStore issues, resolves, and revokes opaque session tokens backed
// by Redis TTL expiry.
type SessionStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSessionStore creates a session store with the given token lifetime.
func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{redis: rdb, ttl: ttl}
}

// Issue generates a fresh token for the user and stores it with the
// configured TTL. uuid.NewString draws from crypto/rand, so tokens are not
// predictable; at 122 random bits no collision handling is needed.
func (s *SessionStore) Issue(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()

	if err := s.redis.Set(ctx, sessionKeyPrefix+token, userID, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}

	return token, nil
}

// Resolve returns the user id a token maps to, or ErrNoSession. The TTL is
// never refreshed -- sessions expire a fixed 24h after issue regardless of
// activity.
func (s *SessionStore) Resolve(ctx context.Context, token string) (string, error) {
	userID, err := s.redis.Get(ctx, sessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("reading session: %w", err)
	}

	return userID, nil
}

// Revoke deletes the session. A token that maps to nothing yields
// ErrNoSession; a Redis outage yields a wrapped connectivity error. The
// two must never be conflated: logout reports unauthorized for the former
// and a server error for the latter.
func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	removed, err := s.redis.Del(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if removed == 0 {
		return ErrNoSession
	}

	return nil
}
