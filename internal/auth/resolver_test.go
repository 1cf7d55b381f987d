package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/tasktrack/tasktrack/internal/cache"
	"github.com/tasktrack/tasktrack/internal/metrics"
	"github.com/tasktrack/tasktrack/internal/model"
)

// stubFinder serves users from a map keyed by token prefix.
// afterLookup, when set, runs once the lookup result has been taken.
type stubFinder struct {
	mu          sync.Mutex
	users       map[string][]*model.User
	calls       int
	err         error
	afterLookup func()
}

func (f *stubFinder) GetUsersByTokenPrefix(_ context.Context, prefix string) ([]*model.User, error) {
	f.mu.Lock()
	f.calls++
	users, err, hook := f.users[prefix], f.err, f.afterLookup
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (f *stubFinder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newResolverFixture(t *testing.T) (*Resolver, *stubFinder, *metrics.InMemoryRecorder, *IssuedToken) {
	t.Helper()

	hasher := NewHasher(testParams)
	token, err := hasher.IssueToken()
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	user := &model.User{
		ID:          "01HUSER",
		Email:       "ada@example.com",
		TokenPrefix: token.Prefix,
		TokenHash:   token.Hash,
	}
	finder := &stubFinder{users: map[string][]*model.User{token.Prefix: {user}}}
	recorder := metrics.NewInMemory()
	layer := cache.NewLayer(cache.NewMemory(100, cache.DefaultTTL), cache.DefaultTTL, recorder)

	return NewResolver(finder, layer, hasher, recorder), finder, recorder, token
}

func TestResolver_Resolve_ValidToken(t *testing.T) {
	t.Parallel()

	r, _, recorder, token := newResolverFixture(t)

	identity, err := r.Resolve(context.Background(), "Bearer "+token.Plaintext)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if identity.UserID != "01HUSER" || identity.Email != "ada@example.com" {
		t.Errorf("identity = %+v", identity)
	}
	if identity.TokenPrefix != token.Prefix {
		t.Errorf("TokenPrefix = %q, want %q", identity.TokenPrefix, token.Prefix)
	}
	if got := recorder.Snapshot().AuthCacheMisses; got != 1 {
		t.Errorf("AuthCacheMisses = %d, want 1", got)
	}
}

func TestResolver_Resolve_UsesIdentityCache(t *testing.T) {
	t.Parallel()

	r, finder, recorder, token := newResolverFixture(t)
	header := "Bearer " + token.Plaintext

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(context.Background(), header); err != nil {
			t.Fatalf("Resolve #%d failed: %v", i, err)
		}
	}

	if got := finder.callCount(); got != 1 {
		t.Errorf("repository lookups = %d, want 1", got)
	}
	if got := recorder.Snapshot().AuthCacheHits; got != 2 {
		t.Errorf("AuthCacheHits = %d, want 2", got)
	}
}

func TestResolver_Resolve_CachedPrefixWithWrongSecret(t *testing.T) {
	t.Parallel()

	r, _, _, token := newResolverFixture(t)
	if _, err := r.Resolve(context.Background(), "Bearer "+token.Plaintext); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// Same prefix, different secret: the warm cache entry must not match.
	forged := "tt_" + token.Prefix + "_00000000000000000000000000000000"
	_, err := r.Resolve(context.Background(), "Bearer "+forged)
	assertRejected(t, err, ReasonInvalidToken)
}

func TestResolver_Resolve_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
		reason string
	}{
		{"missing header", "", ReasonMissingToken},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ReasonMissingToken},
		{"malformed token", "Bearer not-a-token", ReasonInvalidFormat},
		{"unknown prefix", "Bearer tt_ffffffff_0123456789abcdef0123456789abcdef", ReasonInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, _, recorder, _ := newResolverFixture(t)
			identity, err := r.Resolve(context.Background(), tt.header)
			if identity != nil {
				t.Errorf("identity = %+v, want nil", identity)
			}
			assertRejected(t, err, tt.reason)
			if got := recorder.Snapshot().AuthFailures[tt.reason]; got != 1 {
				t.Errorf("AuthFailures[%s] = %d, want 1", tt.reason, got)
			}
		})
	}
}

func TestResolver_Resolve_RevokedAfterCacheDelete(t *testing.T) {
	t.Parallel()

	hasher := NewHasher(testParams)
	token, err := hasher.IssueToken()
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	user := &model.User{ID: "01HUSER", Email: "ada@example.com", TokenPrefix: token.Prefix, TokenHash: token.Hash}
	finder := &stubFinder{users: map[string][]*model.User{token.Prefix: {user}}}
	layer := cache.NewLayer(cache.NewMemory(100, cache.DefaultTTL), cache.DefaultTTL, nil)
	r := NewResolver(finder, layer, hasher, nil)

	header := "Bearer " + token.Plaintext
	if _, err := r.Resolve(context.Background(), header); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// Sign-out: token cleared on the user row and the cached identity dropped.
	finder.mu.Lock()
	finder.users = map[string][]*model.User{}
	finder.mu.Unlock()
	if err := layer.DeleteIdentity(context.Background(), token.Prefix); err != nil {
		t.Fatalf("DeleteIdentity failed: %v", err)
	}

	_, err = r.Resolve(context.Background(), header)
	assertRejected(t, err, ReasonInvalidToken)
}

func TestResolver_Resolve_SignOutDuringLookup(t *testing.T) {
	t.Parallel()

	hasher := NewHasher(testParams)
	token, err := hasher.IssueToken()
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	user := &model.User{ID: "01HUSER", Email: "ada@example.com", TokenPrefix: token.Prefix, TokenHash: token.Hash}
	finder := &stubFinder{users: map[string][]*model.User{token.Prefix: {user}}}
	layer := cache.NewLayer(cache.NewMemory(100, cache.DefaultTTL), cache.DefaultTTL, nil)
	r := NewResolver(finder, layer, hasher, nil)

	// Sign-out commits after the token was found but before it is cached.
	finder.afterLookup = func() {
		finder.mu.Lock()
		finder.users = map[string][]*model.User{}
		finder.afterLookup = nil
		finder.mu.Unlock()
		if err := layer.DeleteIdentity(context.Background(), token.Prefix); err != nil {
			t.Errorf("DeleteIdentity failed: %v", err)
		}
	}

	header := "Bearer " + token.Plaintext
	if _, err := r.Resolve(context.Background(), header); err != nil {
		t.Fatalf("Resolve racing sign-out failed: %v", err)
	}

	_, err = r.Resolve(context.Background(), header)
	assertRejected(t, err, ReasonInvalidToken)
}

func TestResolver_Resolve_LookupFailure(t *testing.T) {
	t.Parallel()

	r, finder, _, token := newResolverFixture(t)
	finder.err = errors.New("connection refused")

	_, err := r.Resolve(context.Background(), "Bearer "+token.Plaintext)
	if err == nil {
		t.Fatal("Resolve should fail when the lookup fails")
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Error("infrastructure failures must not be reported as unauthorized")
	}
}

func assertRejected(t *testing.T, err error, reason string) {
	t.Helper()

	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
	var rejection *RejectionError
	if !errors.As(err, &rejection) {
		t.Fatalf("error %T is not a *RejectionError", err)
	}
	if rejection.Reason != reason {
		t.Errorf("Reason = %q, want %q", rejection.Reason, reason)
	}
}
