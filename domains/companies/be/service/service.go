package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	domainrepo "github.com/tourbase-hq/reservations/domains/companies/be/repo"
	"github.com/tourbase-hq/reservations/platform/go/persistence"
	"github.com/tourbase-hq/reservations/platform/go/requesttrace"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError captures input validation problems surfaced by the service.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// ErrNotFound indicates a missing company.
var ErrNotFound = errors.New("company not found")

// Company is the domain view of a tenant.
type Company struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput defines the payload required to create a company.
type CreateInput struct {
	Name string
}

// UpdateInput defines the fields that can be modified on a company.
type UpdateInput struct {
	Name string
}

// Service exposes the companies domain operations. All of them are reserved
// for administrators; the HTTP layer enforces that.
type Service interface {
	List(ctx context.Context, audit requesttrace.AuditInfo) ([]Company, error)
	Create(ctx context.Context, audit requesttrace.AuditInfo, input CreateInput) (Company, error)
	Get(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID) (Company, error)
	Update(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID, input UpdateInput) (Company, error)
	Delete(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID) error
}

type service struct {
	repo domainrepo.Repository
}

// New builds a companies Service backed by the provided repository.
func New(repo domainrepo.Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, audit requesttrace.AuditInfo) ([]Company, error) { //nolint:revive
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	companies := make([]Company, 0, len(records))
	for _, record := range records {
		companies = append(companies, mapCompany(record))
	}

	return companies, nil
}

func (s *service) Create(ctx context.Context, audit requesttrace.AuditInfo, input CreateInput) (Company, error) { //nolint:revive
	name, validationErr := validateName(input.Name)
	if validationErr != nil {
		return Company{}, validationErr
	}

	record, err := s.repo.Create(ctx, persistence.CreateCompanyParams{
		CompanyID: uuid.New(),
		Name:      name,
	})
	if err != nil {
		return Company{}, err
	}

	return mapCompany(record), nil
}

func (s *service) Get(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID) (Company, error) { //nolint:revive
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrCompanyNotFound) {
			return Company{}, ErrNotFound
		}
		return Company{}, err
	}

	return mapCompany(record), nil
}

func (s *service) Update(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID, input UpdateInput) (Company, error) { //nolint:revive
	if id == uuid.Nil {
		return Company{}, ErrNotFound
	}

	name, validationErr := validateName(input.Name)
	if validationErr != nil {
		return Company{}, validationErr
	}

	record, err := s.repo.UpdateName(ctx, id, name)
	if err != nil {
		if errors.Is(err, persistence.ErrCompanyNotFound) {
			return Company{}, ErrNotFound
		}
		return Company{}, err
	}

	return mapCompany(record), nil
}

func (s *service) Delete(ctx context.Context, audit requesttrace.AuditInfo, id uuid.UUID) error { //nolint:revive
	if id == uuid.Nil {
		return ErrNotFound
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, persistence.ErrCompanyNotFound) {
			return ErrNotFound
		}
		return err
	}

	return nil
}

func validateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", &ValidationError{Fields: FieldErrors{"name": {"name is required"}}}
	}
	return trimmed, nil
}

func mapCompany(record persistence.Company) Company {
	return Company{
		ID:        record.CompanyID,
		Name:      record.Name,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}
