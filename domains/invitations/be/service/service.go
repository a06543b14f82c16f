package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainrepo "github.com/tourbase-hq/reservations/domains/invitations/be/repo"
	"github.com/tourbase-hq/reservations/platform/go/notify"
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

// Domain-level error sentinel values.
var (
	ErrCompanyNotFound = errors.New("company not found")
)

// Invitation is the domain view of an issued invitation. The token is only
// populated on the Issue return value; listings never expose it.
type Invitation struct {
	ID           uuid.UUID
	Email        string
	CompanyID    uuid.UUID
	Role         role.Role
	Token        string
	RegisteredAt *time.Time
	CreatedAt    time.Time
}

// IssueInput defines the payload required to invite someone into a company.
type IssueInput struct {
	Email string
	Role  role.Role
}

// Service exposes the invitation domain operations.
type Service interface {
	Issue(ctx context.Context, audit requesttrace.AuditInfo, companyID uuid.UUID, input IssueInput) (Invitation, error)
	List(ctx context.Context, audit requesttrace.AuditInfo, companyID uuid.UUID) ([]Invitation, error)
}

type service struct {
	repo     domainrepo.Repository
	notifier notify.Notifier
	logger   *zap.Logger
	newToken func() (string, error)
}

// New builds an invitations Service backed by the provided repository.
// Notification failures are logged, never surfaced to the caller.
func New(repo domainrepo.Repository, notifier notify.Notifier, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		notifier: notifier,
		logger:   logger,
		newToken: generateToken,
	}
}

func (s *service) Issue(ctx context.Context, audit requesttrace.AuditInfo, companyID uuid.UUID, input IssueInput) (Invitation, error) { //nolint:revive
	normalized, validationErr := validateIssueInput(input)
	if validationErr != nil {
		return Invitation{}, validationErr
	}

	company, err := s.repo.GetCompany(ctx, companyID)
	if err != nil {
		if errors.Is(err, persistence.ErrCompanyNotFound) {
			return Invitation{}, ErrCompanyNotFound
		}
		return Invitation{}, err
	}

	token, err := s.newToken()
	if err != nil {
		return Invitation{}, err
	}

	record, err := s.repo.Create(ctx, persistence.CreateInvitationParams{
		InvitationID: uuid.New(),
		Email:        normalized.email,
		CompanyID:    companyID,
		RoleID:       int(input.Role),
		Token:        token,
	})
	if err != nil {
		if errors.Is(err, persistence.ErrInvitationPending) {
			return Invitation{}, &ValidationError{Fields: FieldErrors{
				"email": {"an invitation for this email is already pending"},
			}}
		}
		return Invitation{}, err
	}

	s.sendInvite(ctx, record, company.Name, input.Role)

	invitation := mapInvitation(record)
	invitation.Token = record.Token
	return invitation, nil
}

func (s *service) List(ctx context.Context, audit requesttrace.AuditInfo, companyID uuid.UUID) ([]Invitation, error) { //nolint:revive
	records, err := s.repo.ListForCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	invitations := make([]Invitation, 0, len(records))
	for _, record := range records {
		invitations = append(invitations, mapInvitation(record))
	}

	return invitations, nil
}

// sendInvite delivers the notification without tying its fate to the request.
// The invitation row already exists; a lost mail can be recovered by reissuing.
func (s *service) sendInvite(ctx context.Context, record persistence.Invitation, companyName string, r role.Role) {
	invite := notify.RegistrationInvite{
		Email:       record.Email,
		CompanyName: companyName,
		RoleName:    r.String(),
		Token:       record.Token,
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()

		if err := s.notifier.SendRegistrationInvite(sendCtx, invite); err != nil {
			s.logger.Error("failed to send registration invite",
				zap.String("email", invite.Email),
				zap.Error(err),
			)
		}
	}()
}

type normalizedIssueInput struct {
	email string
}

func validateIssueInput(input IssueInput) (normalizedIssueInput, error) {
	errs := FieldErrors{}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		errs.add("email", "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.add("email", "email must be a valid address")
	}

	// Only company members can be invited; customers sign up on their own.
	if !input.Role.Valid() || !input.Role.CompanyScoped() {
		errs.add("role", "role must be owner or guide")
	}

	if len(errs) > 0 {
		return normalizedIssueInput{}, &ValidationError{Fields: errs}
	}

	return normalizedIssueInput{email: email}, nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func mapInvitation(record persistence.Invitation) Invitation {
	// role_id is constrained at write time; an unknown id cannot round-trip.
	r, _ := role.FromID(record.RoleID)
	return Invitation{
		ID:           record.InvitationID,
		Email:        record.Email,
		CompanyID:    record.CompanyID,
		Role:         r,
		RegisteredAt: record.RegisteredAt,
		CreatedAt:    record.CreatedAt,
	}
}

func (f FieldErrors) add(field, message string) {
	if _, ok := f[field]; !ok {
		f[field] = []string{message}
		return
	}
	f[field] = append(f[field], message)
}
