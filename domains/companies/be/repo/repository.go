package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/tourbase-hq/reservations/platform/go/persistence"
)

// Repository exposes persistence operations required by the companies service.
type Repository interface {
	List(ctx context.Context) ([]persistence.Company, error)
	Create(ctx context.Context, params persistence.CreateCompanyParams) (persistence.Company, error)
	Get(ctx context.Context, id uuid.UUID) (persistence.Company, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) (persistence.Company, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	store *persistence.CompanyStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(store *persistence.CompanyStore) Repository {
	if store == nil {
		panic("company store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) List(ctx context.Context) ([]persistence.Company, error) {
	return r.store.ListCompanies(ctx)
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateCompanyParams) (persistence.Company, error) {
	return r.store.CreateCompany(ctx, params)
}

func (r *postgresRepository) Get(ctx context.Context, id uuid.UUID) (persistence.Company, error) {
	return r.store.GetCompany(ctx, id)
}

func (r *postgresRepository) UpdateName(ctx context.Context, id uuid.UUID, name string) (persistence.Company, error) {
	return r.store.UpdateCompanyName(ctx, id, name)
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.DeleteCompany(ctx, id)
}
