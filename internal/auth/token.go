package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// Token format: tt_{prefix}_{secret}
// Example: tt_7a9x3k2b_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b
const (
	TokenPrefixLen = 8  // Visible prefix length (hex encoded 4 bytes)
	TokenSecretLen = 32 // Secret length (hex encoded 16 bytes)
)

var (
	// ErrInvalidTokenFormat indicates the token format is invalid.
	ErrInvalidTokenFormat = errors.New("invalid token format")

	tokenFormatRegex = regexp.MustCompile(`^tt_([a-f0-9]{8})_([a-f0-9]{32})$`)
)

// IssuedToken contains the parts of a newly generated bearer token.
type IssuedToken struct {
	Plaintext string // Full token (returned to the client once)
	Hash      string // Argon2id hash for storage
	Prefix    string // Public prefix used for lookup
}

// IssueToken creates a new bearer token and its storage hash.
func (h *Hasher) IssueToken() (*IssuedToken, error) {
	prefixBytes := make([]byte, TokenPrefixLen/2)
	if _, err := rand.Read(prefixBytes); err != nil {
		return nil, fmt.Errorf("generate prefix: %w", err)
	}
	prefix := hex.EncodeToString(prefixBytes)

	secretBytes := make([]byte, TokenSecretLen/2)
	if _, err := rand.Read(secretBytes); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	plaintext := fmt.Sprintf("tt_%s_%s", prefix, hex.EncodeToString(secretBytes))

	hash, err := h.Hash(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash token: %w", err)
	}

	return &IssuedToken{
		Plaintext: plaintext,
		Hash:      hash,
		Prefix:    prefix,
	}, nil
}

// ParsedToken contains the parsed parts of a bearer token.
type ParsedToken struct {
	Prefix string
	Secret string
}

// ParseToken extracts the components from a plaintext token.
func ParseToken(token string) (*ParsedToken, error) {
	matches := tokenFormatRegex.FindStringSubmatch(token)
	if matches == nil {
		return nil, ErrInvalidTokenFormat
	}

	return &ParsedToken{
		Prefix: matches[1],
		Secret: matches[2],
	}, nil
}
