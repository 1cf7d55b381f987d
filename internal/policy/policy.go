// Package policy decides whether an identity may act on a resource.
package policy

import (
	"errors"
	"fmt"

	"github.com/tasktrack/tasktrack/internal/model"
)

// Visibility selects how resources outside the caller's ownership are reported.
type Visibility string

const (
	// VisibilityScoped reports foreign resources as missing.
	VisibilityScoped Visibility = "scoped"
	// VisibilityGlobal reports foreign resources as forbidden. This reveals
	// that the resource exists.
	VisibilityGlobal Visibility = "global"
)

// ParseVisibility validates a configured visibility mode.
func ParseVisibility(raw string) (Visibility, error) {
	switch Visibility(raw) {
	case VisibilityScoped, VisibilityGlobal:
		return Visibility(raw), nil
	case "":
		return VisibilityScoped, nil
	default:
		return "", fmt.Errorf("unknown visibility %q", raw)
	}
}

// Action is an operation on a project or on a task under it.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var (
	// ErrNotFound means the resource is absent or outside the caller's scope.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden means the resource exists but belongs to someone else.
	ErrForbidden = errors.New("forbidden")
)

// Policy is the ownership rule shared by every project and task operation.
type Policy struct {
	visibility Visibility
}

// New creates a Policy. An empty visibility selects scoped mode.
func New(visibility Visibility) *Policy {
	if visibility == "" {
		visibility = VisibilityScoped
	}
	return &Policy{visibility: visibility}
}

// Visibility returns the configured mode.
func (p *Policy) Visibility() Visibility {
	return p.visibility
}

// Scoped reports whether loaders must restrict lookups to the caller's resources.
func (p *Policy) Scoped() bool {
	return p.visibility != VisibilityGlobal
}

// Authorize checks that identity owns a resource owned by ownerID.
// Every action requires ownership; a mismatch is ErrNotFound in scoped mode
// and ErrForbidden in global mode. A nil identity is never authorized.
func (p *Policy) Authorize(identity *model.Identity, ownerID string, action Action) error {
	if identity != nil && identity.UserID != "" && identity.UserID == ownerID {
		return nil
	}
	if p.Scoped() || identity == nil {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %s", ErrForbidden, action)
}
