package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	domainrepo "github.com/tourbase-hq/reservations/domains/users/be/repo"
	"github.com/tourbase-hq/reservations/platform/go/persistence"
	"github.com/tourbase-hq/reservations/platform/go/requesttrace"
	"github.com/tourbase-hq/reservations/platform/go/role"
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

// ErrNotFound indicates the user does not exist within the requested company.
var ErrNotFound = errors.New("user not found")

// User is the domain view of a company member.
type User struct {
	ID        uuid.UUID
	CompanyID *uuid.UUID
	Role      role.Role
	Name      string
	Email     string
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpdateInput defines the fields an administrator or owner may edit.
type UpdateInput struct {
	Name  *string
	Email *string
}

// Service exposes company member administration. Every operation is scoped to
// a company; a user that exists in another tenant is reported as not found.
type Service interface {
	ListMembers(ctx context.Context, audit requesttrace.AuditInfo, companyID uuid.UUID, memberRole role.Role) ([]User, error)
	Get(ctx context.Context, audit requesttrace.AuditInfo, companyID, userID uuid.UUID) (User, error)
	Update(ctx context.Context, audit requesttrace.AuditInfo, companyID, userID uuid.UUID, input UpdateInput) (User, error)
	Delete(ctx context.Context, audit requesttrace.AuditInfo, companyID, userID uuid.UUID) error
}

type service struct {
	repo domainrepo.Repository
}

// New builds a users Service backed by the provided repository.
func New(repo domainrepo.Repository) Service {
	return &service{repo: repo}
}

func (s *service) ListMembers(ctx context.Context, audit requesttrace.AuditInfo, companyID uuid.UUID, memberRole role.Role) ([]User, error) { //nolint:revive
	if !memberRole.CompanyScoped() {
		return nil, &ValidationError{Fields: FieldErrors{"role": {"role must be owner or guide"}}}
	}

	records, err := s.repo.ListCompanyUsers(ctx, persistence.ListCompanyUsersParams{
		CompanyID: companyID,
		RoleID:    int(memberRole),
	})
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(records))
	for _, record := range records {
		users = append(users, mapUser(record))
	}

	return users, nil
}

func (s *service) Get(ctx context.Context, audit requesttrace.AuditInfo, companyID, userID uuid.UUID) (User, error) { //nolint:revive
	record, err := s.memberOf(ctx, companyID, userID)
	if err != nil {
		return User{}, err
	}
	return mapUser(record), nil
}

func (s *service) Update(ctx context.Context, audit requesttrace.AuditInfo, companyID, userID uuid.UUID, input UpdateInput) (User, error) { //nolint:revive
	if _, err := s.memberOf(ctx, companyID, userID); err != nil {
		return User{}, err
	}

	normalized, validationErr := validateUpdateInput(input)
	if validationErr != nil {
		return User{}, validationErr
	}

	record, err := s.repo.Update(ctx, userID, persistence.UpdateUserParams{
		Name:  normalized.name,
		Email: normalized.email,
	})
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrUserNotFound):
			return User{}, ErrNotFound
		case errors.Is(err, persistence.ErrUserConflict):
			return User{}, &ValidationError{Fields: FieldErrors{"email": {"email is already in use"}}}
		default:
			return User{}, err
		}
	}

	return mapUser(record), nil
}

func (s *service) Delete(ctx context.Context, audit requesttrace.AuditInfo, companyID, userID uuid.UUID) error { //nolint:revive
	if _, err := s.memberOf(ctx, companyID, userID); err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		if errors.Is(err, persistence.ErrUserNotFound) {
			return ErrNotFound
		}
		return err
	}

	return nil
}

// memberOf loads the user and confirms it belongs to the company. Users from
// other tenants are indistinguishable from missing ones on purpose.
func (s *service) memberOf(ctx context.Context, companyID, userID uuid.UUID) (persistence.User, error) {
	record, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrUserNotFound) {
			return persistence.User{}, ErrNotFound
		}
		return persistence.User{}, err
	}

	if record.CompanyID == nil || *record.CompanyID != companyID {
		return persistence.User{}, ErrNotFound
	}

	return record, nil
}

type normalizedUpdateInput struct {
	name  *string
	email *string
}

func validateUpdateInput(input UpdateInput) (normalizedUpdateInput, error) {
	errs := FieldErrors{}
	var normalized normalizedUpdateInput

	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			errs.add("name", "name is required")
		} else {
			normalized.name = &trimmed
		}
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" {
			errs.add("email", "email is required")
		} else if _, err := mail.ParseAddress(email); err != nil {
			errs.add("email", "email must be a valid address")
		} else {
			normalized.email = &email
		}
	}

	if input.Name == nil && input.Email == nil {
		errs.add("body", "at least one field must be provided")
	}

	if len(errs) > 0 {
		return normalizedUpdateInput{}, &ValidationError{Fields: errs}
	}

	return normalized, nil
}

func mapUser(record persistence.User) User {
	r, _ := role.FromID(record.RoleID)
	return User{
		ID:        record.UserID,
		CompanyID: record.CompanyID,
		Role:      r,
		Name:      record.Name,
		Email:     record.Email,
		DeletedAt: record.DeletedAt,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func (f FieldErrors) add(field, message string) {
	if _, ok := f[field]; !ok {
		f[field] = []string{message}
		return
	}
	f[field] = append(f[field], message)
}
