package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	domainrepo "github.com/tourbase-hq/reservations/domains/auth/be/repo"
	platformauth "github.com/tourbase-hq/reservations/platform/go/auth"
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

// ErrInvalidCredentials is returned on any login failure. Whether the email
// exists is deliberately not revealed.
var ErrInvalidCredentials = errors.New("invalid credentials")

const minPasswordLength = 8

// Session is the result of a successful registration or login.
type Session struct {
	Token     string
	UserID    uuid.UUID
	Name      string
	Email     string
	Role      role.Role
	CompanyID *uuid.UUID
}

// RegisterInput defines the payload for account registration. Token, when
// present, binds the registration to a pending invitation; without it the
// account is always an unaffiliated customer regardless of what the client
// claims.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Token    string
}

// LoginInput defines the payload for credential login.
type LoginInput struct {
	Email    string
	Password string
}

// Service exposes registration and session establishment.
type Service interface {
	Register(ctx context.Context, audit requesttrace.AuditInfo, input RegisterInput) (Session, error)
	Login(ctx context.Context, audit requesttrace.AuditInfo, input LoginInput) (Session, error)
}

type service struct {
	repo   domainrepo.Repository
	tokens *platformauth.TokenIssuer
}

// New builds an auth Service backed by the provided repository and token issuer.
func New(repo domainrepo.Repository, tokens *platformauth.TokenIssuer) Service {
	return &service{repo: repo, tokens: tokens}
}

func (s *service) Register(ctx context.Context, audit requesttrace.AuditInfo, input RegisterInput) (Session, error) { //nolint:revive
	normalized, validationErr := validateRegisterInput(input)
	if validationErr != nil {
		return Session{}, validationErr
	}

	passwordHash, err := platformauth.HashPassword(input.Password)
	if err != nil {
		return Session{}, err
	}

	params := persistence.CreateUserParams{
		UserID:       uuid.New(),
		Name:         normalized.name,
		Email:        normalized.email,
		PasswordHash: passwordHash,
	}

	var record persistence.User
	if normalized.token != "" {
		record, err = s.registerInvited(ctx, params, normalized)
	} else {
		// No invitation: a plain customer account with no company. Role and
		// company are never taken from the request.
		params.RoleID = int(role.Customer)
		record, err = s.repo.CreateUser(ctx, params)
		if errors.Is(err, persistence.ErrUserConflict) {
			err = &ValidationError{Fields: FieldErrors{"email": {"email is already in use"}}}
		}
	}
	if err != nil {
		return Session{}, err
	}

	return s.startSession(record)
}

func (s *service) registerInvited(ctx context.Context, params persistence.CreateUserParams, normalized normalizedRegisterInput) (persistence.User, error) {
	invitation, err := s.repo.GetPendingInvitationByToken(ctx, normalized.token)
	if err != nil {
		if errors.Is(err, persistence.ErrInvitationNotFound) {
			return persistence.User{}, &ValidationError{Fields: FieldErrors{
				"token": {"invitation is invalid or already used"},
			}}
		}
		return persistence.User{}, err
	}

	// The invitation was addressed to a specific person; registering a
	// different email against it is refused.
	if !strings.EqualFold(invitation.Email, normalized.email) {
		return persistence.User{}, &ValidationError{Fields: FieldErrors{
			"email": {"email does not match the invitation"},
		}}
	}

	record, err := s.repo.RegisterInvitedUser(ctx, params, normalized.token)
	if err != nil {
		switch {
		case errors.Is(err, persistence.ErrInvitationNotPending):
			// Lost the race with another registration on the same token.
			return persistence.User{}, &ValidationError{Fields: FieldErrors{
				"token": {"invitation is invalid or already used"},
			}}
		case errors.Is(err, persistence.ErrUserConflict):
			return persistence.User{}, &ValidationError{Fields: FieldErrors{
				"email": {"email is already in use"},
			}}
		default:
			return persistence.User{}, err
		}
	}

	return record, nil
}

func (s *service) Login(ctx context.Context, audit requesttrace.AuditInfo, input LoginInput) (Session, error) { //nolint:revive
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return Session{}, ErrInvalidCredentials
	}

	record, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	if !platformauth.CheckPassword(record.PasswordHash, input.Password) {
		return Session{}, ErrInvalidCredentials
	}

	return s.startSession(record)
}

func (s *service) startSession(record persistence.User) (Session, error) {
	r, err := role.FromID(record.RoleID)
	if err != nil {
		return Session{}, err
	}

	principal := platformauth.Principal{
		UserID:    record.UserID,
		Email:     record.Email,
		Role:      r,
		CompanyID: record.CompanyID,
	}

	token, err := s.tokens.Issue(principal)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    record.UserID,
		Name:      record.Name,
		Email:     record.Email,
		Role:      r,
		CompanyID: record.CompanyID,
	}, nil
}

type normalizedRegisterInput struct {
	name  string
	email string
	token string
}

func validateRegisterInput(input RegisterInput) (normalizedRegisterInput, error) {
	errs := FieldErrors{}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		errs.add("name", "name is required")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		errs.add("email", "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.add("email", "email must be a valid address")
	}

	if len(input.Password) < minPasswordLength {
		errs.add("password", "password must be at least 8 characters")
	}

	if len(errs) > 0 {
		return normalizedRegisterInput{}, &ValidationError{Fields: errs}
	}

	return normalizedRegisterInput{
		name:  name,
		email: email,
		token: strings.TrimSpace(input.Token),
	}, nil
}

func (f FieldErrors) add(field, message string) {
	if _, ok := f[field]; !ok {
		f[field] = []string{message}
		return
	}
	f[field] = append(f[field], message)
}
