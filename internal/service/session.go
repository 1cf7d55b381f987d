package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/tasktrack/tasktrack/internal/auth"
	"github.com/tasktrack/tasktrack/internal/cache"
	"github.com/tasktrack/tasktrack/internal/model"
	"github.com/tasktrack/tasktrack/internal/repository"
)

// SessionService issues and revokes bearer tokens.
// A user holds at most one token; issuing a new one replaces the old.
type SessionService struct {
	users  UserStore
	cache  *cache.Layer
	hasher *auth.Hasher
	// dummyHash is verified when the email is unknown so both failure paths
	// cost one argon2 computation.
	dummyHash string
}

// NewSessionService creates a new SessionService.
func NewSessionService(users UserStore, layer *cache.Layer, hasher *auth.Hasher) (*SessionService, error) {
	if layer == nil {
		layer = cache.NewLayer(nil, 0, nil)
	}
	if hasher == nil {
		hasher = auth.NewHasher(auth.DefaultParams)
	}
	dummy, err := hasher.Hash("tasktrack-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &SessionService{users: users, cache: layer, hasher: hasher, dummyHash: dummy}, nil
}

// SignIn checks the credentials and returns a freshly issued token.
// Any previous token of the user stops working immediately, so signing in
// from one client signs out every other client of the same user.
func (s *SessionService) SignIn(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetUserByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyHash)
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		return "", ErrInvalidCredentials
	}

	token, err := s.rotate(ctx, user)
	if err != nil {
		return "", err
	}

	slogcontext.FromCtx(ctx).Info("user signed in", slog.String("user_id", user.ID))
	return token, nil
}

// SignOut clears the caller's token and its cached identity.
func (s *SessionService) SignOut(ctx context.Context, identity *model.Identity) error {
	if identity == nil {
		return ErrUnauthenticated
	}

	if err := s.users.ClearUserToken(ctx, identity.UserID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("clear token: %w", err)
	}
	if err := s.cache.DeleteIdentity(ctx, identity.TokenPrefix); err != nil {
		return err
	}

	slogcontext.FromCtx(ctx).Info("user signed out", slog.String("user_id", identity.UserID))
	return nil
}

// Issue replaces the token of the user with the given email without
// checking a password. It is meant for operators.
func (s *SessionService) Issue(ctx context.Context, email string) (string, error) {
	user, err := s.findUser(ctx, email)
	if err != nil {
		return "", err
	}
	return s.rotate(ctx, user)
}

// Revoke clears the token of the user with the given email.
func (s *SessionService) Revoke(ctx context.Context, email string) error {
	user, err := s.findUser(ctx, email)
	if err != nil {
		return err
	}
	return s.SignOut(ctx, model.IdentityFor(user))
}

func (s *SessionService) findUser(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

// rotate stores a new token for user and evicts the identity cached for
// the old one.
func (s *SessionService) rotate(ctx context.Context, user *model.User) (string, error) {
	issued, err := s.hasher.IssueToken()
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	if err := s.users.SetUserToken(ctx, user.ID, issued.Prefix, issued.Hash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("store token: %w", err)
	}

	if err := s.cache.DeleteIdentity(ctx, user.TokenPrefix); err != nil {
		return "", err
	}

	return issued.Plaintext, nil
}
