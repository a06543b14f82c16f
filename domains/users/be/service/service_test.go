package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tourbase-hq/reservations/platform/go/persistence"
	"github.com/tourbase-hq/reservations/platform/go/requesttrace"
	"github.com/tourbase-hq/reservations/platform/go/role"
)

type mockRepository struct {
	listCompanyUsersFn func(ctx context.Context, params persistence.ListCompanyUsersParams) ([]persistence.User, error)
	getFn              func(ctx context.Context, id uuid.UUID) (persistence.User, error)
	updateFn           func(ctx context.Context, id uuid.UUID, params persistence.UpdateUserParams) (persistence.User, error)
	softDeleteFn       func(ctx context.Context, id uuid.UUID) error
}

func (m *mockRepository) ListCompanyUsers(ctx context.Context, params persistence.ListCompanyUsersParams) ([]persistence.User, error) {
	if m.listCompanyUsersFn == nil {
		panic("listCompanyUsersFn not configured")
	}
	return m.listCompanyUsersFn(ctx, params)
}

func (m *mockRepository) Get(ctx context.Context, id uuid.UUID) (persistence.User, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, id)
}

func (m *mockRepository) Update(ctx context.Context, id uuid.UUID, params persistence.UpdateUserParams) (persistence.User, error) {
	if m.updateFn == nil {
		panic("updateFn not configured")
	}
	return m.updateFn(ctx, id, params)
}

func (m *mockRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if m.softDeleteFn == nil {
		panic("softDeleteFn not configured")
	}
	return m.softDeleteFn(ctx, id)
}

func guideFixture(companyID uuid.UUID) persistence.User {
	return persistence.User{
		UserID:    uuid.New(),
		CompanyID: &companyID,
		RoleID:    int(role.Guide),
		Name:      "Guide",
		Email:     "guide@example.com",
	}
}

func TestServiceListMembersFiltersByRole(t *testing.T) {
	t.Parallel()

	companyID := uuid.New()
	repo := &mockRepository{}
	repo.listCompanyUsersFn = func(ctx context.Context, params persistence.ListCompanyUsersParams) ([]persistence.User, error) {
		require.Equal(t, companyID, params.CompanyID)
		require.Equal(t, int(role.Guide), params.RoleID)
		require.False(t, params.IncludeDeleted)
		return []persistence.User{guideFixture(companyID)}, nil
	}

	svc := New(repo)
	users, err := svc.ListMembers(context.Background(), requesttrace.Anonymous("test"), companyID, role.Guide)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, role.Guide, users[0].Role)
}

func TestServiceListMembersRejectsNonCompanyRole(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})
	_, err := svc.ListMembers(context.Background(), requesttrace.Anonymous("test"), uuid.New(), role.Customer)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	require.Contains(t, validationErr.Fields, "role")
}

func TestServiceGetRejectsForeignCompany(t *testing.T) {
	t.Parallel()

	otherCompany := uuid.New()
	repo := &mockRepository{}
	repo.getFn = func(ctx context.Context, id uuid.UUID) (persistence.User, error) {
		return guideFixture(otherCompany), nil
	}

	svc := New(repo)
	_, err := svc.Get(context.Background(), requesttrace.Anonymous("test"), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceUpdateSuccess(t *testing.T) {
	t.Parallel()

	companyID := uuid.New()
	member := guideFixture(companyID)

	repo := &mockRepository{}
	repo.getFn = func(ctx context.Context, id uuid.UUID) (persistence.User, error) {
		return member, nil
	}
	repo.updateFn = func(ctx context.Context, id uuid.UUID, params persistence.UpdateUserParams) (persistence.User, error) {
		require.Equal(t, member.UserID, id)
		require.NotNil(t, params.Name)
		require.Equal(t, "Renamed", *params.Name)
		require.NotNil(t, params.Email)
		require.Equal(t, "renamed@example.com", *params.Email)

		updated := member
		updated.Name = *params.Name
		updated.Email = *params.Email
		return updated, nil
	}

	svc := New(repo)
	name := " Renamed "
	email := " Renamed@Example.com "
	user, err := svc.Update(context.Background(), requesttrace.Anonymous("test"), companyID, member.UserID, UpdateInput{
		Name:  &name,
		Email: &email,
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed", user.Name)
	require.Equal(t, "renamed@example.com", user.Email)
}

func TestServiceUpdateEmailConflict(t *testing.T) {
	t.Parallel()

	companyID := uuid.New()
	member := guideFixture(companyID)

	repo := &mockRepository{}
	repo.getFn = func(ctx context.Context, id uuid.UUID) (persistence.User, error) {
		return member, nil
	}
	repo.updateFn = func(ctx context.Context, id uuid.UUID, params persistence.UpdateUserParams) (persistence.User, error) {
		return persistence.User{}, persistence.ErrUserConflict
	}

	svc := New(repo)
	email := "taken@example.com"
	_, err := svc.Update(context.Background(), requesttrace.Anonymous("test"), companyID, member.UserID, UpdateInput{Email: &email})
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	require.Contains(t, validationErr.Fields, "email")
}

func TestServiceUpdateRequiresAField(t *testing.T) {
	t.Parallel()

	companyID := uuid.New()
	member := guideFixture(companyID)

	repo := &mockRepository{}
	repo.getFn = func(ctx context.Context, id uuid.UUID) (persistence.User, error) {
		return member, nil
	}

	svc := New(repo)
	_, err := svc.Update(context.Background(), requesttrace.Anonymous("test"), companyID, member.UserID, UpdateInput{})
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	require.Contains(t, validationErr.Fields, "body")
}

func TestServiceDeleteScopedToCompany(t *testing.T) {
	t.Parallel()

	companyID := uuid.New()
	member := guideFixture(companyID)
	deleted := false

	repo := &mockRepository{}
	repo.getFn = func(ctx context.Context, id uuid.UUID) (persistence.User, error) {
		return member, nil
	}
	repo.softDeleteFn = func(ctx context.Context, id uuid.UUID) error {
		require.Equal(t, member.UserID, id)
		deleted = true
		return nil
	}

	svc := New(repo)
	require.NoError(t, svc.Delete(context.Background(), requesttrace.Anonymous("test"), companyID, member.UserID))
	require.True(t, deleted)

	// Same user id under another company is invisible.
	require.ErrorIs(t,
		svc.Delete(context.Background(), requesttrace.Anonymous("test"), uuid.New(), member.UserID),
		ErrNotFound,
	)
}
