package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tasktrack/tasktrack/internal/auth"
	"github.com/tasktrack/tasktrack/internal/cache"
	"github.com/tasktrack/tasktrack/internal/repository"
	"github.com/tasktrack/tasktrack/internal/service"
)

const (
	FlagDatabaseURL = "database-url"
	FlagRedisURL    = "redis-url"
	FlagFormat      = "format"
	FlagTimeout     = "timeout"
	FlagEmail       = "email"
	FlagPassword    = "password"
)

// backends are the services a command runs against.
type backends struct {
	users    *service.UserService
	sessions *service.SessionService
	close    func()
}

// opener connects the backends for the given connection settings.
type opener func(ctx context.Context, databaseURL, redisURL string) (*backends, error)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "tasktrackctl",
		Short:         "Administer tasktrack users and tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String(FlagDatabaseURL, os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	root.PersistentFlags().String(FlagRedisURL, os.Getenv("REDIS_URL"), "Redis URL; when set, revoked tokens are also evicted from the identity cache")
	root.PersistentFlags().String(FlagFormat, "plain", "output format: plain or json")
	root.PersistentFlags().Duration(FlagTimeout, 10*time.Second, "overall deadline for the command")

	root.AddCommand(newUserCmd(open), newSessionCmd(open))
	return root
}

func newUserCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Long: `Create a user with the given email and password.

The password may also be supplied through TASKTRACK_PASSWORD so that it does
not end up in shell history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString(FlagEmail)
			password, _ := cmd.Flags().GetString(FlagPassword)
			if password == "" {
				password = os.Getenv("TASKTRACK_PASSWORD")
			}

			return withBackends(cmd, open, func(ctx context.Context, b *backends) error {
				user, err := b.users.Register(ctx, service.RegisterInput{
					Email:                email,
					Password:             password,
					PasswordConfirmation: password,
				})
				if err != nil {
					return err
				}
				return render(cmd, map[string]string{"user_id": user.ID, "email": user.Email},
					fmt.Sprintf("created user %s (%s)", user.Email, user.ID))
			})
		},
	}
	create.Flags().String(FlagEmail, "", "email address of the user")
	create.Flags().String(FlagPassword, "", "password of the user")
	_ = create.MarkFlagRequired(FlagEmail)

	cmd.AddCommand(create)
	return cmd
}

func newSessionCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Issue or revoke bearer tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a new token for a user, replacing the current one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString(FlagEmail)
			return withBackends(cmd, open, func(ctx context.Context, b *backends) error {
				token, err := b.sessions.Issue(ctx, email)
				if err != nil {
					return err
				}
				return render(cmd, map[string]string{"email": email, "token": token}, token)
			})
		},
	}
	issue.Flags().String(FlagEmail, "", "email address of the user")
	_ = issue.MarkFlagRequired(FlagEmail)

	revoke := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke the current token of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString(FlagEmail)
			return withBackends(cmd, open, func(ctx context.Context, b *backends) error {
				if err := b.sessions.Revoke(ctx, email); err != nil {
					return err
				}
				return render(cmd, map[string]string{"email": email, "status": "revoked"},
					fmt.Sprintf("revoked token of %s", email))
			})
		},
	}
	revoke.Flags().String(FlagEmail, "", "email address of the user")
	_ = revoke.MarkFlagRequired(FlagEmail)

	cmd.AddCommand(issue, revoke)
	return cmd
}

// withBackends opens the backends under the command deadline and runs fn.
func withBackends(cmd *cobra.Command, open opener, fn func(ctx context.Context, b *backends) error) error {
	databaseURL, _ := cmd.Flags().GetString(FlagDatabaseURL)
	redisURL, _ := cmd.Flags().GetString(FlagRedisURL)
	timeout, _ := cmd.Flags().GetDuration(FlagTimeout)

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	b, err := open(ctx, databaseURL, redisURL)
	if err != nil {
		return err
	}
	defer b.close()

	return fn(ctx, b)
}

// render prints data as JSON or the plain line, depending on --format.
func render(cmd *cobra.Command, data map[string]string, plain string) error {
	format, _ := cmd.Flags().GetString(FlagFormat)
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case "plain":
		_, err := io.WriteString(out, plain+"\n")
		return err
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// openBackends connects PostgreSQL and, when configured, Redis.
func openBackends(ctx context.Context, databaseURL, redisURL string) (*backends, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("--%s or DATABASE_URL is required", FlagDatabaseURL)
	}

	repo, err := repository.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	var store cache.Store = cache.NewNoop()
	if redisURL != "" {
		redisStore, err := cache.NewRedis(ctx, redisURL)
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store = redisStore
	}

	hasher := auth.NewHasher(auth.DefaultParams)
	sessions, err := service.NewSessionService(repo, cache.NewLayer(store, cache.DefaultTTL, nil), hasher)
	if err != nil {
		_ = store.Close()
		repo.Close()
		return nil, err
	}

	return &backends{
		users:    service.NewUserService(repo, hasher),
		sessions: sessions,
		close: func() {
			_ = store.Close()
			repo.Close()
		},
	}, nil
}
