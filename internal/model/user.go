// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// User represents an account that owns projects.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize
	TokenPrefix  string    `json:"-"`
	TokenHash    string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasToken returns true if the user currently holds a bearer token.
func (u *User) HasToken() bool {
	return u.TokenPrefix != "" && u.TokenHash != ""
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Identity is the authenticated caller of a request.
// It is injected into the request context by the auth middleware.
type Identity struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	TokenPrefix string `json:"token_prefix"`
}

// IdentityFor builds the identity of a user authenticated with their current token.
func IdentityFor(u *User) *Identity {
	return &Identity{
		UserID:      u.ID,
		Email:       u.Email,
		TokenPrefix: u.TokenPrefix,
	}
}
