package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/tasktrack/tasktrack/internal/model"
)

// authCachePrefix is the key prefix for resolved identities.
const authCachePrefix = "auth:ctx:"

// cachedIdentity is the identity stored under a token prefix. TokenDigest
// pins the entry to one full token so a guessed prefix never hits.
type cachedIdentity struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	TokenPrefix string `json:"token_prefix"`
	TokenDigest string `json:"token_digest"`
}

// IdentityKey is the key of the identity resolved for a token prefix.
func IdentityKey(tokenPrefix string) string {
	return authCachePrefix + tokenPrefix
}

// GetIdentity returns the cached identity for a token.
// It returns nil without error on a miss, an undecodable entry, or when the
// entry belongs to a different token with the same prefix.
func (l *Layer) GetIdentity(ctx context.Context, tokenPrefix, tokenDigest string) (*model.Identity, error) {
	key := IdentityKey(tokenPrefix)

	data, err := l.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		l.recorder.IncCacheError("get")
		return nil, fmt.Errorf("read identity cache: %w", err)
	}

	var cached cachedIdentity
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		slogcontext.FromCtx(ctx).Warn("discarding undecodable identity entry", slog.String("key", key))
		return nil, nil
	}
	if cached.TokenDigest != tokenDigest {
		return nil, nil
	}

	return &model.Identity{
		UserID:      cached.UserID,
		Email:       cached.Email,
		TokenPrefix: cached.TokenPrefix,
	}, nil
}

// IdentityGeneration returns the invalidation generation of a token prefix.
// Read it before looking the token up and pass it to SetIdentity.
func (l *Layer) IdentityGeneration(ctx context.Context, tokenPrefix string) (uint64, error) {
	gen, err := l.store.Generation(ctx, IdentityKey(tokenPrefix))
	if err != nil {
		l.recorder.IncCacheError("generation")
		return 0, fmt.Errorf("read identity generation: %w", err)
	}
	return gen, nil
}

// SetIdentity caches a resolved identity for the layer's TTL unless the token
// prefix was invalidated after gen was read. It reports whether the entry
// was written.
func (l *Layer) SetIdentity(ctx context.Context, tokenPrefix, tokenDigest string, identity *model.Identity, gen uint64) (bool, error) {
	data, err := json.Marshal(cachedIdentity{
		UserID:      identity.UserID,
		Email:       identity.Email,
		TokenPrefix: tokenPrefix,
		TokenDigest: tokenDigest,
	})
	if err != nil {
		return false, fmt.Errorf("marshal identity: %w", err)
	}

	written, err := l.store.SetIfGeneration(ctx, IdentityKey(tokenPrefix), data, l.ttl, gen)
	if err != nil {
		l.recorder.IncCacheError("set")
		return false, fmt.Errorf("write identity cache: %w", err)
	}
	return written, nil
}

// DeleteIdentity removes the cached identity of a token prefix.
// Used when a token is rotated or revoked.
func (l *Layer) DeleteIdentity(ctx context.Context, tokenPrefix string) error {
	if tokenPrefix == "" {
		return nil
	}
	return l.Invalidate(ctx, IdentityKey(tokenPrefix))
}
