package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/ignatzorin/academic-services-backend/internal/config"
	"github.com/ignatzorin/academic-services-backend/internal/db"
	"github.com/ignatzorin/academic-services-backend/internal/domain/valueobject"
	"github.com/ignatzorin/academic-services-backend/internal/logger"
	"github.com/ignatzorin/academic-services-backend/internal/repository"
	"github.com/ignatzorin/academic-services-backend/internal/service"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "admin",
		Short:         "Operator tools for the academic services backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())
	rootCmd.AddCommand(createUserCmd())
	rootCmd.AddCommand(seedServicesCmd())
	rootCmd.AddCommand(issueTokenCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// environment - конфигурация и подключение к базе, общие для команд.
type environment struct {
	cfg  *config.Config
	conn *sqlx.DB
}

func openEnvironment(ctx context.Context) (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Env)

	conn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &environment{cfg: cfg, conn: conn}, nil
}

func (e *environment) Close() {
	_ = e.conn.Close()
}

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			migrations := os.DirFS(env.cfg.MigrationsPath)
			out := cmd.OutOrStdout()

			if status {
				states, err := db.MigrationStatus(cmd.Context(), env.conn, migrations)
				if err != nil {
					return err
				}
				for _, m := range states {
					if m.AppliedAt == nil {
						fmt.Fprintf(out, "pending  %s\n", m.Name)
						continue
					}
					fmt.Fprintf(out, "applied  %s  %s\n", m.Name, m.AppliedAt.Format(time.RFC3339))
				}
				return nil
			}

			applied, err := db.RunMigrations(cmd.Context(), env.conn, migrations)
			for _, name := range applied {
				fmt.Fprintf(out, "Applied %s\n", name)
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(out, "Database is up to date")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "list migrations without applying them")
	return cmd
}

func createAdminCmd() *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:     "create-admin",
		Short:   "Create an admin user",
		Example: `  admin create-admin --email ops@example.com --name "Operations"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return createUser(cmd, name, email, valueobject.RoleAdmin)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// createUserCmd заводит пользователя заранее, до его первого запроса с токеном.
func createUserCmd() *cobra.Command {
	var email, name, role string

	cmd := &cobra.Command{
		Use:     "create-user",
		Short:   "Create a user with the given role",
		Example: `  admin create-user --email student@example.com --name "Anna" --role STUDENT`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := valueobject.NewRole(strings.ToUpper(strings.TrimSpace(role)))
			if err != nil {
				return err
			}
			return createUser(cmd, name, email, parsed)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "user email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(valueobject.RoleStudent), "STUDENT or ADMIN")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func createUser(cmd *cobra.Command, name, email string, role valueobject.Role) error {
	env, err := openEnvironment(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	users := service.NewUserService(repository.NewUserRepository(env.conn), nil, nil)
	user, err := users.CreateUser(cmd.Context(), name, email, role)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", strings.ToLower(string(user.Role)), user.Email, user.ID)
	return nil
}

func seedServicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-services",
		Short: "Insert the default service catalog (existing slugs are skipped)",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			seeder := service.NewSeedService(repository.NewServiceRepository(env.conn))
			result, err := seeder.SeedServices(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", joinOrDash(result.Created))
			fmt.Fprintf(cmd.OutOrStdout(), "Skipped: %s\n", joinOrDash(result.Skipped))
			return nil
		},
	}
}

func issueTokenCmd() *cobra.Command {
	var rawUserID string

	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Mint an access token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(rawUserID)
			if err != nil {
				return fmt.Errorf("invalid --user-id: %w", err)
			}

			env, err := openEnvironment(cmd.Context())
			if err != nil {
				return err
			}
			defer env.Close()

			if env.cfg.IsProduction() {
				return fmt.Errorf("issue-token is disabled in production")
			}

			user, err := repository.NewUserRepository(env.conn).GetByID(cmd.Context(), userID)
			if err != nil {
				return err
			}

			tokens := service.NewTokenManager(env.cfg.JWTSecret, env.cfg.AccessTokenTTL)
			token, expiresAt, err := tokens.IssueAccess(user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", token)
			fmt.Fprintf(cmd.ErrOrStderr(), "role=%s expires=%s\n", user.Role, expiresAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}

	cmd.Flags().StringVar(&rawUserID, "user-id", "", "user UUID")
	_ = cmd.MarkFlagRequired("user-id")

	return cmd
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
