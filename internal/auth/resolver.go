package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/tasktrack/tasktrack/internal/cache"
	"github.com/tasktrack/tasktrack/internal/metrics"
	"github.com/tasktrack/tasktrack/internal/model"
)

// ErrUnauthorized is returned when the request carries no usable credential.
var ErrUnauthorized = errors.New("unauthorized")

// Rejection reasons reported in logs and metrics.
const (
	ReasonMissingToken  = "missing_token"
	ReasonInvalidFormat = "invalid_format"
	ReasonInvalidToken  = "invalid_token"
)

// RejectionError describes why a credential was refused.
// It matches ErrUnauthorized with errors.Is.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return "unauthorized: " + e.Reason
}

// Unwrap makes errors.Is(err, ErrUnauthorized) hold.
func (e *RejectionError) Unwrap() error {
	return ErrUnauthorized
}

func reject(reason string) error {
	return &RejectionError{Reason: reason}
}

// TokenUserFinder looks up the users whose current token has the given prefix.
type TokenUserFinder interface {
	GetUsersByTokenPrefix(ctx context.Context, prefix string) ([]*model.User, error)
}

// Resolver turns an Authorization header into an Identity.
type Resolver struct {
	users    TokenUserFinder
	layer    *cache.Layer
	hasher   *Hasher
	recorder metrics.Recorder
}

// NewResolver creates a Resolver. layer may be nil to disable identity caching.
func NewResolver(users TokenUserFinder, layer *cache.Layer, hasher *Hasher, recorder metrics.Recorder) *Resolver {
	if layer == nil {
		layer = cache.NewLayer(nil, 0, recorder)
	}
	if hasher == nil {
		hasher = NewHasher(DefaultParams)
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Resolver{users: users, layer: layer, hasher: hasher, recorder: recorder}
}

// ExtractBearer returns the token from a "Bearer <token>" header value.
func ExtractBearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// Resolve authenticates the Authorization header value.
// Credential problems return an error matching ErrUnauthorized; any other
// error is an infrastructure failure.
func (r *Resolver) Resolve(ctx context.Context, header string) (*model.Identity, error) {
	token, ok := ExtractBearer(header)
	if !ok {
		return nil, r.fail(reject(ReasonMissingToken))
	}

	parsed, err := ParseToken(token)
	if err != nil {
		return nil, r.fail(reject(ReasonInvalidFormat))
	}

	digest := Digest(token)
	identity, err := r.layer.GetIdentity(ctx, parsed.Prefix, digest)
	if err != nil {
		slogcontext.FromCtx(ctx).Warn("identity cache read failed",
			slog.String("token_prefix", parsed.Prefix),
			slog.String("error", err.Error()),
		)
	}
	if identity != nil {
		r.recorder.IncAuthSuccess(true)
		return identity, nil
	}

	gen, genErr := r.layer.IdentityGeneration(ctx, parsed.Prefix)
	if genErr != nil {
		slogcontext.FromCtx(ctx).Warn("identity cache generation read failed",
			slog.String("token_prefix", parsed.Prefix),
			slog.String("error", genErr.Error()),
		)
	}

	users, err := r.users.GetUsersByTokenPrefix(ctx, parsed.Prefix)
	if err != nil {
		return nil, fmt.Errorf("lookup token prefix: %w", err)
	}

	for _, user := range users {
		valid, err := r.hasher.Verify(token, user.TokenHash)
		if err != nil || !valid {
			continue
		}

		identity = model.IdentityFor(user)
		if genErr == nil {
			if _, err := r.layer.SetIdentity(ctx, parsed.Prefix, digest, identity, gen); err != nil {
				slogcontext.FromCtx(ctx).Warn("identity cache write failed",
					slog.String("token_prefix", parsed.Prefix),
					slog.String("error", err.Error()),
				)
			}
		}
		r.recorder.IncAuthSuccess(false)
		return identity, nil
	}

	return nil, r.fail(reject(ReasonInvalidToken))
}

func (r *Resolver) fail(err error) error {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		r.recorder.IncAuthFailure(rejection.Reason)
	}
	return err
}
