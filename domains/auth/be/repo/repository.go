package repo

import (
	"context"

	"github.com/tourbase-hq/reservations/platform/go/persistence"
)

// Repository exposes persistence operations required by the auth service.
type Repository interface {
	CreateUser(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error)
	RegisterInvitedUser(ctx context.Context, params persistence.CreateUserParams, token string) (persistence.User, error)
	FindUserByEmail(ctx context.Context, email string) (persistence.User, error)
	GetPendingInvitationByToken(ctx context.Context, token string) (persistence.Invitation, error)
}

type postgresRepository struct {
	users       *persistence.UserStore
	invitations *persistence.InvitationStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(users *persistence.UserStore, invitations *persistence.InvitationStore) Repository {
	if users == nil {
		panic("user store is required")
	}
	if invitations == nil {
		panic("invitation store is required")
	}
	return &postgresRepository{users: users, invitations: invitations}
}

func (r *postgresRepository) CreateUser(ctx context.Context, params persistence.CreateUserParams) (persistence.User, error) {
	return r.users.CreateUser(ctx, params)
}

func (r *postgresRepository) RegisterInvitedUser(ctx context.Context, params persistence.CreateUserParams, token string) (persistence.User, error) {
	return r.users.RegisterInvitedUser(ctx, params, token)
}

func (r *postgresRepository) FindUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	return r.users.FindUserByEmail(ctx, email)
}

func (r *postgresRepository) GetPendingInvitationByToken(ctx context.Context, token string) (persistence.Invitation, error) {
	return r.invitations.GetPendingByToken(ctx, token)
}
