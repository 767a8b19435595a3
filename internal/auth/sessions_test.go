package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestSessions(t *testing.T, ttl time.Duration) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewSessionStore(client, ttl), mr
}

func TestSessions_IssueAndResolve(t *testing.T) {
	store, mr := newTestSessions(t, time.Hour)
	ctx := context.Background()

	token, err := store.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token")
	}

	userID, err := store.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("expected user-1, got %s", userID)
	}

	// The backing key follows the auth_<token> convention.
	if !mr.Exists("auth_" + token) {
		t.Error("expected session key auth_<token> in redis")
	}
}

func TestSessions_IssueUniqueTokens(t *testing.T) {
	store, _ := newTestSessions(t, time.Hour)
	ctx := context.Background()

	a, err := store.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := store.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Error("expected distinct tokens for concurrent sessions")
	}

	// Both sessions are live independently.
	if _, err := store.Resolve(ctx, a); err != nil {
		t.Errorf("first session dead: %v", err)
	}
	if _, err := store.Resolve(ctx, b); err != nil {
		t.Errorf("second session dead: %v", err)
	}
}

func TestSessions_Expiry(t *testing.T) {
	store, mr := newTestSessions(t, time.Hour)
	ctx := context.Background()

	token, err := store.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mr.FastForward(time.Hour + time.Second)

	_, err = store.Resolve(ctx, token)
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession after expiry, got %v", err)
	}
}

func TestSessions_ResolveDoesNotRefreshTTL(t *testing.T) {
	store, mr := newTestSessions(t, time.Hour)
	ctx := context.Background()

	token, err := store.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Resolve near the end of the window, then cross it. A refreshing
	// lookup would keep the session alive; a fixed TTL must not.
	mr.FastForward(59 * time.Minute)
	if _, err := store.Resolve(ctx, token); err != nil {
		t.Fatalf("session should still be live: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	_, err = store.Resolve(ctx, token)
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestSessions_Revoke(t *testing.T) {
	store, _ := newTestSessions(t, time.Hour)
	ctx := context.Background()

	token, err := store.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Revoke(ctx, token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = store.Resolve(ctx, token)
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession after revoke, got %v", err)
	}
}

func TestSessions_RevokeUnknownToken(t *testing.T) {
	store, _ := newTestSessions(t, time.Hour)

	err := store.Revoke(context.Background(), "no-such-token")
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}
