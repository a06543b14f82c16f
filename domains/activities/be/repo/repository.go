package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/tourbase-hq/reservations/platform/go/persistence"
)

// Repository exposes persistence operations required by the activities service.
// GetUser is needed to confirm guide assignments against the company roster.
type Repository interface {
	List(ctx context.Context, companyID uuid.UUID) ([]persistence.Activity, error)
	Create(ctx context.Context, params persistence.CreateActivityParams) (persistence.Activity, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.Activity, error)
	Update(ctx context.Context, id uuid.UUID, params persistence.UpdateActivityParams) (persistence.Activity, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetUser(ctx context.Context, id uuid.UUID) (persistence.User, error)
}

type postgresRepository struct {
	activities *persistence.ActivityStore
	users      *persistence.UserStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(activities *persistence.ActivityStore, users *persistence.UserStore) Repository {
	if activities == nil {
		panic("activity store is required")
	}
	if users == nil {
		panic("user store is required")
	}
	return &postgresRepository{activities: activities, users: users}
}

func (r *postgresRepository) List(ctx context.Context, companyID uuid.UUID) ([]persistence.Activity, error) {
	return r.activities.ListCompanyActivities(ctx, companyID)
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateActivityParams) (persistence.Activity, error) {
	return r.activities.CreateActivity(ctx, params)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.Activity, error) {
	return r.activities.GetActivity(ctx, id)
}

func (r *postgresRepository) Update(ctx context.Context, id uuid.UUID, params persistence.UpdateActivityParams) (persistence.Activity, error) {
	return r.activities.UpdateActivity(ctx, id, params)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.activities.DeleteActivity(ctx, id)
}

func (r *postgresRepository) GetUser(ctx context.Context, id uuid.UUID) (persistence.User, error) {
	return r.users.GetUser(ctx, id)
}
