package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/tasktrack/tasktrack/internal/auth"
	"github.com/tasktrack/tasktrack/internal/model"
	"github.com/tasktrack/tasktrack/internal/repository"
)

// Registration validation messages.
const (
	MsgEmailBlank           = "Email can't be blank"
	MsgEmailInvalid         = "Email is invalid"
	MsgEmailTaken           = "Email has already been taken"
	MsgPasswordBlank        = "Password can't be blank"
	MsgPasswordTooShort     = "Password is too short (minimum is 6 characters)"
	MsgPasswordTooLong      = "Password is too long (maximum is 128 characters)"
	MsgConfirmationBlank    = "Password confirmation can't be blank"
	MsgConfirmationMismatch = "Password confirmation doesn't match Password"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 128
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

// RegisterInput holds the sign-up fields.
type RegisterInput struct {
	Email                string
	Password             string
	PasswordConfirmation string
}

// UserService handles account registration.
type UserService struct {
	users  UserStore
	hasher *auth.Hasher
	now    func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, hasher *auth.Hasher) *UserService {
	if hasher == nil {
		hasher = auth.NewHasher(auth.DefaultParams)
	}
	return &UserService{
		users:  users,
		hasher: hasher,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an account. It does not sign the user in.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email := model.NormalizeEmail(input.Email)
	if err := validationError(validateRegistration(email, input)); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &model.User{
		ID:           newID(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, &ValidationError{Messages: []string{MsgEmailTaken}}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	slogcontext.FromCtx(ctx).Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}

func validateRegistration(email string, input RegisterInput) []string {
	var msgs []string

	switch {
	case email == "":
		msgs = append(msgs, MsgEmailBlank)
	case !emailRegex.MatchString(email):
		msgs = append(msgs, MsgEmailInvalid)
	}

	switch {
	case input.Password == "":
		msgs = append(msgs, MsgPasswordBlank)
	case len(input.Password) < minPasswordLength:
		msgs = append(msgs, MsgPasswordTooShort)
	case len(input.Password) > maxPasswordLength:
		msgs = append(msgs, MsgPasswordTooLong)
	}

	switch {
	case strings.TrimSpace(input.PasswordConfirmation) == "":
		msgs = append(msgs, MsgConfirmationBlank)
	case input.PasswordConfirmation != input.Password:
		msgs = append(msgs, MsgConfirmationMismatch)
	}

	return msgs
}
