package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/tourbase-hq/reservations/platform/go/persistence"
)

// Repository exposes persistence operations required by the users service.
type Repository interface {
	ListCompanyUsers(ctx context.Context, params persistence.ListCompanyUsersParams) ([]persistence.User, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.User, error)
	Update(ctx context.Context, id uuid.UUID, params persistence.UpdateUserParams) (persistence.User, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	store *persistence.UserStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.UserStore) Repository {
	if store == nil {
		panic("user store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) ListCompanyUsers(ctx context.Context, params persistence.ListCompanyUsersParams) ([]persistence.User, error) {
	return r.store.ListCompanyUsers(ctx, params)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.User, error) {
	return r.store.GetUser(ctx, id)
}

func (r *postgresRepository) Update(ctx context.Context, id uuid.UUID, params persistence.UpdateUserParams) (persistence.User, error) {
	return r.store.UpdateUser(ctx, id, params)
}

func (r *postgresRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.store.SoftDeleteUser(ctx, id)
}
