package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/tourbase-hq/reservations/platform/go/persistence"
)

// Repository exposes persistence operations required by the invitations service.
type Repository interface {
	Create(ctx context.Context, params persistence.CreateInvitationParams) (persistence.Invitation, error)
	GetPendingByToken(ctx context.Context, token string) (persistence.Invitation, error)
	ListForCompany(ctx context.Context, companyID uuid.UUID) ([]persistence.Invitation, error)
	GetCompany(ctx context.Context, id uuid.UUID) (persistence.Company, error)
}

type postgresRepository struct {
	invitations *persistence.InvitationStore
	companies   *persistence.CompanyStore
}

// NewPostgresRepository builds a Repository backed by the shared persistence layer.
func NewPostgresRepository(invitations *persistence.InvitationStore, companies *persistence.CompanyStore) Repository {
	if invitations == nil {
		panic("invitation store is required")
	}
	if companies == nil {
		panic("company store is required")
	}
	return &postgresRepository{invitations: invitations, companies: companies}
}

func (r *postgresRepository) Create(ctx context.Context, params persistence.CreateInvitationParams) (persistence.Invitation, error) {
	return r.invitations.CreateInvitation(ctx, params)
}

func (r *postgresRepository) GetPendingByToken(ctx context.Context, token string) (persistence.Invitation, error) {
	return r.invitations.GetPendingByToken(ctx, token)
}

func (r *postgresRepository) ListForCompany(ctx context.Context, companyID uuid.UUID) ([]persistence.Invitation, error) {
	return r.invitations.ListCompanyInvitations(ctx, companyID)
}

func (r *postgresRepository) GetCompany(ctx context.Context, id uuid.UUID) (persistence.Company, error) {
	return r.companies.GetCompany(ctx, id)
}
