package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping persistence integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("reservations"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp").WithStartupTimeout(2*time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	connString, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, PoolConfig{ConnString: connString})
	require.NoError(t, err)
	t.Cleanup(func() { ClosePool(pool) })

	require.NoError(t, BootstrapSchema(ctx, pool))
	return pool
}

func mustCompany(t *testing.T, ctx context.Context, store *CompanyStore, name string) Company {
	t.Helper()
	company, err := store.CreateCompany(ctx, CreateCompanyParams{CompanyID: uuid.New(), Name: name})
	require.NoError(t, err)
	return company
}

func TestStores(t *testing.T) {
	pool := startTestPool(t)
	ctx := context.Background()

	companyStore, err := NewCompanyStore(ctx, pool)
	require.NoError(t, err)
	userStore, err := NewUserStore(ctx, pool)
	require.NoError(t, err)
	invitationStore, err := NewInvitationStore(ctx, pool)
	require.NoError(t, err)
	activityStore, err := NewActivityStore(ctx, pool)
	require.NoError(t, err)

	t.Run("pending invitation uniqueness is global", func(t *testing.T) {
		companyA := mustCompany(t, ctx, companyStore, "Acme Tours")
		companyB := mustCompany(t, ctx, companyStore, "Beta Trips")

		_, err := invitationStore.CreateInvitation(ctx, CreateInvitationParams{
			InvitationID: uuid.New(),
			Email:        "pending@example.com",
			CompanyID:    companyA.CompanyID,
			RoleID:       4,
			Token:        "token-pending-1",
		})
		require.NoError(t, err)

		// Same email, different company and role: still rejected.
		_, err = invitationStore.CreateInvitation(ctx, CreateInvitationParams{
			InvitationID: uuid.New(),
			Email:        "Pending@Example.com",
			CompanyID:    companyB.CompanyID,
			RoleID:       2,
			Token:        "token-pending-2",
		})
		require.ErrorIs(t, err, ErrInvitationPending)
	})

	t.Run("register invited user consumes invitation atomically", func(t *testing.T) {
		company := mustCompany(t, ctx, companyStore, "Gamma Expeditions")

		invitation, err := invitationStore.CreateInvitation(ctx, CreateInvitationParams{
			InvitationID: uuid.New(),
			Email:        "guide@example.com",
			CompanyID:    company.CompanyID,
			RoleID:       4,
			Token:        "token-register",
		})
		require.NoError(t, err)
		require.Nil(t, invitation.RegisteredAt)

		user, err := userStore.RegisterInvitedUser(ctx, CreateUserParams{
			UserID:       uuid.New(),
			Name:         "Test Guide",
			Email:        "guide@example.com",
			PasswordHash: "x",
		}, invitation.Token)
		require.NoError(t, err)
		require.NotNil(t, user.CompanyID)
		require.Equal(t, company.CompanyID, *user.CompanyID)
		require.Equal(t, 4, user.RoleID)

		// Consumed exactly once: the token no longer resolves as pending and
		// a second registration attempt is rejected without creating a row.
		_, err = invitationStore.GetPendingByToken(ctx, invitation.Token)
		require.ErrorIs(t, err, ErrInvitationNotFound)

		_, err = userStore.RegisterInvitedUser(ctx, CreateUserParams{
			UserID:       uuid.New(),
			Name:         "Imposter",
			Email:        "imposter@example.com",
			PasswordHash: "x",
		}, invitation.Token)
		require.ErrorIs(t, err, ErrInvitationNotPending)

		_, err = userStore.FindUserByEmail(ctx, "imposter@example.com")
		require.ErrorIs(t, err, ErrUserNotFound)

		// The email is free for a fresh invitation now that none is pending.
		_, err = invitationStore.CreateInvitation(ctx, CreateInvitationParams{
			InvitationID: uuid.New(),
			Email:        "guide@example.com",
			CompanyID:    company.CompanyID,
			RoleID:       4,
			Token:        "token-register-again",
		})
		require.NoError(t, err)
	})

	t.Run("duplicate account email rolls back invitation consumption", func(t *testing.T) {
		company := mustCompany(t, ctx, companyStore, "Delta Adventures")

		_, err := userStore.CreateUser(ctx, CreateUserParams{
			UserID:       uuid.New(),
			RoleID:       3,
			Name:         "Existing",
			Email:        "taken@example.com",
			PasswordHash: "x",
		})
		require.NoError(t, err)

		invitation, err := invitationStore.CreateInvitation(ctx, CreateInvitationParams{
			InvitationID: uuid.New(),
			Email:        "taken@example.com",
			CompanyID:    company.CompanyID,
			RoleID:       2,
			Token:        "token-rollback",
		})
		require.NoError(t, err)

		_, err = userStore.RegisterInvitedUser(ctx, CreateUserParams{
			UserID:       uuid.New(),
			Name:         "Dup",
			Email:        "taken@example.com",
			PasswordHash: "x",
		}, invitation.Token)
		require.ErrorIs(t, err, ErrUserConflict)

		// The failed insert must not have left the invitation consumed.
		pending, err := invitationStore.GetPendingByToken(ctx, invitation.Token)
		require.NoError(t, err)
		require.Nil(t, pending.RegisteredAt)
	})

	t.Run("users are soft deleted", func(t *testing.T) {
		company := mustCompany(t, ctx, companyStore, "Epsilon Travel")

		user, err := userStore.CreateUser(ctx, CreateUserParams{
			UserID:       uuid.New(),
			CompanyID:    &company.CompanyID,
			RoleID:       4,
			Name:         "Soft Delete Me",
			Email:        "softdelete@example.com",
			PasswordHash: "x",
		})
		require.NoError(t, err)

		require.NoError(t, userStore.SoftDeleteUser(ctx, user.UserID))

		_, err = userStore.GetUser(ctx, user.UserID)
		require.ErrorIs(t, err, ErrUserNotFound)

		kept, err := userStore.GetUserIncludeDeleted(ctx, user.UserID)
		require.NoError(t, err)
		require.NotNil(t, kept.DeletedAt)

		listed, err := userStore.ListCompanyUsers(ctx, ListCompanyUsersParams{CompanyID: company.CompanyID, RoleID: 4})
		require.NoError(t, err)
		require.Empty(t, listed)

		withDeleted, err := userStore.ListCompanyUsers(ctx, ListCompanyUsersParams{CompanyID: company.CompanyID, RoleID: 4, IncludeDeleted: true})
		require.NoError(t, err)
		require.Len(t, withDeleted, 1)

		// Live email uniqueness no longer applies to the deleted row.
		_, err = userStore.CreateUser(ctx, CreateUserParams{
			UserID:       uuid.New(),
			CompanyID:    &company.CompanyID,
			RoleID:       4,
			Name:         "Replacement",
			Email:        "softdelete@example.com",
			PasswordHash: "x",
		})
		require.NoError(t, err)
	})

	t.Run("activities are hard deleted", func(t *testing.T) {
		company := mustCompany(t, ctx, companyStore, "Zeta Guides")

		guide, err := userStore.CreateUser(ctx, CreateUserParams{
			UserID:       uuid.New(),
			CompanyID:    &company.CompanyID,
			RoleID:       4,
			Name:         "Guide",
			Email:        "zeta-guide@example.com",
			PasswordHash: "x",
		})
		require.NoError(t, err)

		activity, err := activityStore.CreateActivity(ctx, CreateActivityParams{
			ActivityID:  uuid.New(),
			CompanyID:   company.CompanyID,
			GuideID:     guide.UserID,
			Name:        "Canyon Hike",
			Description: "Full day hike",
			StartTime:   time.Date(2023, 9, 1, 10, 0, 0, 0, time.UTC),
			Price:       999900,
		})
		require.NoError(t, err)

		require.NoError(t, activityStore.DeleteActivity(ctx, activity.ActivityID))

		_, err = activityStore.GetActivity(ctx, activity.ActivityID)
		require.ErrorIs(t, err, ErrActivityNotFound)

		require.ErrorIs(t, activityStore.DeleteActivity(ctx, activity.ActivityID), ErrActivityNotFound)
	})
}
