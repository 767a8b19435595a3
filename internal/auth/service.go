package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"filedepot/internal/apperror"
)

// AuthService defines the business logic contract for accounts and sessions.
// Handlers call these methods -- they never touch the repository or the
// session store directly.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*User, error)
	Login(ctx context.Context, email, password string) (token string, err error)
	Logout(ctx context.Context, token string) error

	// Authenticate resolves a token to its User. It is the gate every
	// protected operation passes before touching any other resource.
	Authenticate(ctx context.Context, token string) (*User, error)
}

// authService implements AuthService with bcrypt hashing and Redis sessions.
type authService struct {
	repo     UserRepository
	sessions *SessionStore
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(repo UserRepository, sessions *SessionStore) AuthService {
	return &authService{repo: repo, sessions: sessions}
}

// Register creates a new account. Missing fields report the specific field;
// a taken email reports "Already exist".
func (s *authService) Register(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperror.NewBadRequest("Missing email")
	}
	if password == "" {
		return nil, apperror.NewBadRequest("Missing password")
	}

	// Check before the expensive hash; the unique key on email catches
	// the race where two registrations pass this check together.
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, apperror.NewConflict("Already exist")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	user := &User{
		Email:        email,
		PasswordHash: string(hash),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password produce the identical Unauthorized outcome so the response
// never reveals which check failed.
func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == 404 {
			return "", apperror.NewUnauthorized()
		}
		return "", apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", apperror.NewUnauthorized()
	}

	token, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("issuing session: %w", err))
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return token, nil
}

// Logout revokes the caller's session. The caller has already passed the
// auth gate, so a missing session here means it expired between the two
// calls; that still maps to Unauthorized. A Redis outage is a server error,
// never confused with "already logged out".
func (s *authService) Logout(ctx context.Context, token string) error {
	err := s.sessions.Revoke(ctx, token)
	if errors.Is(err, ErrNoSession) {
		return apperror.NewUnauthorized()
	}
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("revoking session: %w", err))
	}

	return nil
}

// Authenticate resolves a token to a User. Both failure points -- token not
// in Redis, and a resolved user id with no matching row (orphaned session)
// -- collapse to the same Unauthorized signal outward, but are logged
// distinctly for diagnostics.
func (s *authService) Authenticate(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, apperror.NewUnauthorized()
	}

	userID, err := s.sessions.Resolve(ctx, token)
	if errors.Is(err, ErrNoSession) {
		slog.Debug("auth: token has no live session")
		return nil, apperror.NewUnauthorized()
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("resolving session: %w", err))
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == 404 {
			slog.Warn("auth: orphaned session, cache resolves but user row missing",
				slog.String("user_id", userID),
			)
			return nil, apperror.NewUnauthorized()
		}
		return nil, apperror.NewInternal(fmt.Errorf("loading session user: %w", err))
	}

	return user, nil
}
