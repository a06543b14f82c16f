package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const CompaniesTable = "companies"

// Company represents a row in the companies table. A company is the tenant
// boundary; users and activities reference it.
type Company struct {
	CompanyID uuid.UUID `db:"company_id" json:"companyId"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ErrCompanyNotFound indicates a missing company record.
var ErrCompanyNotFound = errors.New("company not found")

// CompanyStore exposes persistence helpers for the companies table.
type CompanyStore struct {
	pool *pgxpool.Pool
}

// NewCompanyStore returns a store instance; assumes bootstrap already created the table.
func NewCompanyStore(ctx context.Context, pool *pgxpool.Pool) (*CompanyStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &CompanyStore{pool: pool}, nil
}

// CreateCompanyParams captures the fields required to insert a company.
type CreateCompanyParams struct {
	CompanyID uuid.UUID
	Name      string
}

// CreateCompany inserts a new company and returns the persisted record.
func (s *CompanyStore) CreateCompany(ctx context.Context, params CreateCompanyParams) (Company, error) {
	if params.CompanyID == uuid.Nil {
		return Company{}, errors.New("company id is required")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (company_id, name)
        VALUES ($1, $2)
        RETURNING company_id, name, created_at, updated_at
    `, CompaniesTable),
		params.CompanyID,
		strings.TrimSpace(params.Name),
	)

	return scanCompany(row)
}

// ListCompanies returns all companies ordered by creation time.
func (s *CompanyStore) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT company_id, name, created_at, updated_at
        FROM %s
        ORDER BY created_at ASC
    `, CompaniesTable))
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	companies := make([]Company, 0)
	for rows.Next() {
		company, scanErr := scanCompany(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan company: %w", scanErr)
		}
		companies = append(companies, company)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}

	return companies, nil
}

// GetCompany returns a single company by identifier.
func (s *CompanyStore) GetCompany(ctx context.Context, id uuid.UUID) (Company, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT company_id, name, created_at, updated_at
        FROM %s WHERE company_id = $1
    `, CompaniesTable), id)

	company, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, ErrCompanyNotFound
		}
		return Company{}, err
	}

	return company, nil
}

// UpdateCompanyName renames a company and returns the updated record.
func (s *CompanyStore) UpdateCompanyName(ctx context.Context, id uuid.UUID, name string) (Company, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s
        SET name = $1, updated_at = NOW()
        WHERE company_id = $2
        RETURNING company_id, name, created_at, updated_at
    `, CompaniesTable), strings.TrimSpace(name), id)

	company, err := scanCompany(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, ErrCompanyNotFound
		}
		return Company{}, err
	}

	return company, nil
}

// DeleteCompany removes a company by identifier.
func (s *CompanyStore) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrCompanyNotFound
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE company_id = $1`, CompaniesTable), id)
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrCompanyNotFound
	}

	return nil
}

func scanCompany(row pgx.Row) (Company, error) {
	var company Company
	if err := row.Scan(&company.CompanyID, &company.Name, &company.CreatedAt, &company.UpdatedAt); err != nil {
		return Company{}, err
	}
	return company, nil
}
