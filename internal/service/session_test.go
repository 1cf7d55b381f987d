package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tasktrack/tasktrack/internal/auth"
)

func TestSessionService_SignInIssuesWorkingToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com")
	resolver := auth.NewResolver(f.store, f.layer, f.hasher, f.recorder)

	token, err := f.sessions.SignIn(ctx, "Alice@Example.com", "password")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	identity, err := resolver.Resolve(ctx, "Bearer "+token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if identity.Email != "alice@example.com" {
		t.Errorf("Email = %q", identity.Email)
	}
}

func TestSessionService_WrongPasswordKeepsToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com")

	token, err := f.sessions.SignIn(ctx, "alice@example.com", "password")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	before, _ := f.store.GetUserByEmail(ctx, "alice@example.com")

	for _, tc := range []struct{ email, password string }{
		{"alice@example.com", "wrong-password"},
		{"nobody@example.com", "password"},
		{"", ""},
	} {
		if _, err := f.sessions.SignIn(ctx, tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("SignIn(%q) error = %v, want ErrInvalidCredentials", tc.email, err)
		}
	}

	after, _ := f.store.GetUserByEmail(ctx, "alice@example.com")
	if after.TokenPrefix != before.TokenPrefix || after.TokenHash != before.TokenHash {
		t.Error("failed sign-in must not touch the stored token")
	}

	resolver := auth.NewResolver(f.store, f.layer, f.hasher, f.recorder)
	if _, err := resolver.Resolve(ctx, "Bearer "+token); err != nil {
		t.Errorf("token should still resolve: %v", err)
	}
}

func TestSessionService_SignInRotates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com")
	resolver := auth.NewResolver(f.store, f.layer, f.hasher, f.recorder)

	first, err := f.sessions.SignIn(ctx, "alice@example.com", "password")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	// Cache the identity of the first token.
	if _, err := resolver.Resolve(ctx, "Bearer "+first); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	second, err := f.sessions.SignIn(ctx, "alice@example.com", "password")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if first == second {
		t.Fatal("sign-in should issue a new token")
	}

	if _, err := resolver.Resolve(ctx, "Bearer "+first); !errors.Is(err, auth.ErrUnauthorized) {
		t.Errorf("old token error = %v, want ErrUnauthorized", err)
	}
	if _, err := resolver.Resolve(ctx, "Bearer "+second); err != nil {
		t.Errorf("new token should resolve: %v", err)
	}
}

func TestSessionService_SignOutRevokesCachedIdentity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com")
	resolver := auth.NewResolver(f.store, f.layer, f.hasher, f.recorder)

	token, err := f.sessions.SignIn(ctx, "alice@example.com", "password")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	identity, err := resolver.Resolve(ctx, "Bearer "+token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if err := f.sessions.SignOut(ctx, identity); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	if _, err := resolver.Resolve(ctx, "Bearer "+token); !errors.Is(err, auth.ErrUnauthorized) {
		t.Errorf("Resolve after sign-out error = %v, want ErrUnauthorized", err)
	}
}

func TestSessionService_IssueAndRevoke(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com")
	resolver := auth.NewResolver(f.store, f.layer, f.hasher, f.recorder)

	token, err := f.sessions.Issue(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := resolver.Resolve(ctx, "Bearer "+token); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if err := f.sessions.Revoke(ctx, "alice@example.com"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := resolver.Resolve(ctx, "Bearer "+token); !errors.Is(err, auth.ErrUnauthorized) {
		t.Errorf("Resolve after revoke error = %v, want ErrUnauthorized", err)
	}

	if _, err := f.sessions.Issue(ctx, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Issue(unknown) error = %v, want ErrUserNotFound", err)
	}
}
