package service

import (
	"context"
	"strings"
	"testing"
)

func TestUserService_Register(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.Register(ctx, RegisterInput{
		Email:                "  Ada@Example.com ",
		Password:             "password",
		PasswordConfirmation: "password",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Errorf("Email = %q, want normalized", user.Email)
	}
	if user.PasswordHash == "" || strings.Contains(user.PasswordHash, "password") {
		t.Errorf("PasswordHash = %q, want an argon2id hash", user.PasswordHash)
	}
	if user.HasToken() {
		t.Error("registration must not issue a token")
	}

	_, err = f.users.Register(ctx, RegisterInput{
		Email:                "ADA@example.com",
		Password:             "password",
		PasswordConfirmation: "password",
	})
	assertValidation(t, err, MsgEmailTaken)
}

func TestUserService_RegisterValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input RegisterInput
		want  []string
	}{
		{
			name:  "confirmation mismatch",
			input: RegisterInput{Email: "a@example.com", Password: "password", PasswordConfirmation: "wrongpassword"},
			want:  []string{MsgConfirmationMismatch},
		},
		{
			name:  "confirmation missing",
			input: RegisterInput{Email: "a@example.com", Password: "password"},
			want:  []string{MsgConfirmationBlank},
		},
		{
			name:  "email missing",
			input: RegisterInput{Password: "password", PasswordConfirmation: "password"},
			want:  []string{MsgEmailBlank},
		},
		{
			name:  "email invalid",
			input: RegisterInput{Email: "not-an-email", Password: "password", PasswordConfirmation: "password"},
			want:  []string{MsgEmailInvalid},
		},
		{
			name:  "password short",
			input: RegisterInput{Email: "a@example.com", Password: "abc", PasswordConfirmation: "abc"},
			want:  []string{MsgPasswordTooShort},
		},
		{
			name:  "password too long",
			input: RegisterInput{Email: "a@example.com", Password: strings.Repeat("x", 129), PasswordConfirmation: strings.Repeat("x", 129)},
			want:  []string{MsgPasswordTooLong},
		},
		{
			name:  "everything missing",
			input: RegisterInput{},
			want:  []string{MsgEmailBlank, MsgPasswordBlank, MsgConfirmationBlank},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			_, err := f.users.Register(context.Background(), tt.input)
			assertValidation(t, err, tt.want...)
		})
	}
}
