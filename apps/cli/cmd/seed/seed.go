package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tourbase-hq/reservations/platform/go/auth"
	"github.com/tourbase-hq/reservations/platform/go/persistence"
	"github.com/tourbase-hq/reservations/platform/go/role"
)

// Command groups data seeding helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed initial data (platform administrator)",
		Long:  "Seed initial data such as the platform administrator account used to manage companies.",
	}

	cmd.AddCommand(adminCommand())
	return cmd
}

func adminCommand() *cobra.Command {
	var (
		databaseURL string
		email       string
		name        string
		password    string
	)

	c := &cobra.Command{
		Use:   "admin",
		Short: "Create the platform administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" {
				return fmt.Errorf("admin email is required")
			}
			if len(password) < 8 {
				return fmt.Errorf("admin password must be at least 8 characters")
			}

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			userStore, err := persistence.NewUserStore(ctx, pool)
			if err != nil {
				return fmt.Errorf("init user store: %w", err)
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return fmt.Errorf("hash admin password: %w", err)
			}

			user, err := userStore.CreateUser(ctx, persistence.CreateUserParams{
				UserID:       uuid.New(),
				RoleID:       int(role.Administrator),
				Name:         name,
				Email:        email,
				PasswordHash: hash,
			})
			if err != nil {
				if errors.Is(err, persistence.ErrUserConflict) {
					fmt.Fprintf(cmd.OutOrStdout(), "Administrator %s already exists, nothing to do.\n", email)
					return nil
				}
				return fmt.Errorf("create administrator: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Administrator created: %s (%s)\n", user.Email, user.UserID)
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	c.Flags().StringVar(&email, "email", "admin@admin.com", "Administrator email")
	c.Flags().StringVar(&name, "name", "Administrator", "Administrator display name")
	c.Flags().StringVar(&password, "password", "", "Administrator password (min 8 characters)")

	_ = c.MarkFlagRequired("database-url")
	_ = c.MarkFlagRequired("password")

	return c
}
