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

const UserInvitationsTable = "user_invitations"

// pendingEmailIndex is the partial unique index enforcing at most one
// unconsumed invitation per email.
const pendingEmailIndex = "user_invitations_pending_email_uq"

// Invitation represents a row in the user_invitations table. Rows are
// append-only: consumption sets registered_at, nothing is ever deleted.
type Invitation struct {
	InvitationID uuid.UUID  `db:"invitation_id" json:"invitationId"`
	Email        string     `db:"email" json:"email"`
	CompanyID    uuid.UUID  `db:"company_id" json:"companyId"`
	RoleID       int        `db:"role_id" json:"roleId"`
	Token        string     `db:"token" json:"-"`
	RegisteredAt *time.Time `db:"registered_at" json:"registeredAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

var (
	// ErrInvitationNotFound indicates a missing invitation record.
	ErrInvitationNotFound = errors.New("invitation not found")
	// ErrInvitationPending indicates an unconsumed invitation already exists for the email.
	ErrInvitationPending = errors.New("invitation already pending for email")
	// ErrInvitationNotPending indicates the referenced invitation was already consumed or never existed.
	ErrInvitationNotPending = errors.New("invitation not pending")
)

const invitationColumns = "invitation_id, email, company_id, role_id, token, registered_at, created_at"

// InvitationStore exposes persistence helpers for the user_invitations table.
type InvitationStore struct {
	pool *pgxpool.Pool
}

// NewInvitationStore returns a store instance; assumes bootstrap already created the table.
func NewInvitationStore(ctx context.Context, pool *pgxpool.Pool) (*InvitationStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &InvitationStore{pool: pool}, nil
}

// CreateInvitationParams captures the fields required to insert an invitation.
type CreateInvitationParams struct {
	InvitationID uuid.UUID
	Email        string
	CompanyID    uuid.UUID
	RoleID       int
	Token        string
}

// CreateInvitation inserts a new pending invitation. A concurrent or earlier
// pending invitation for the same email surfaces as ErrInvitationPending via
// the partial unique index, so callers need no separate existence check.
func (s *InvitationStore) CreateInvitation(ctx context.Context, params CreateInvitationParams) (Invitation, error) {
	if params.InvitationID == uuid.Nil {
		return Invitation{}, errors.New("invitation id is required")
	}
	if params.Token == "" {
		return Invitation{}, errors.New("token is required")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (invitation_id, email, company_id, role_id, token)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING %s
    `, UserInvitationsTable, invitationColumns),
		params.InvitationID,
		strings.ToLower(strings.TrimSpace(params.Email)),
		params.CompanyID,
		params.RoleID,
		params.Token,
	)

	invitation, err := scanInvitation(row)
	if err != nil {
		if isUniqueViolationOn(err, pendingEmailIndex) {
			return Invitation{}, ErrInvitationPending
		}
		if isUniqueViolation(err) {
			// Token collision; vanishingly unlikely with 256-bit tokens.
			return Invitation{}, fmt.Errorf("create invitation: %w", err)
		}
		return Invitation{}, err
	}

	return invitation, nil
}

// GetPendingByToken returns the unconsumed invitation carrying the token.
func (s *InvitationStore) GetPendingByToken(ctx context.Context, token string) (Invitation, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s
        FROM %s WHERE token = $1 AND registered_at IS NULL
    `, invitationColumns, UserInvitationsTable), token)

	invitation, err := scanInvitation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invitation{}, ErrInvitationNotFound
		}
		return Invitation{}, err
	}

	return invitation, nil
}

// GetPendingByEmail returns the unconsumed invitation for the email, if any.
func (s *InvitationStore) GetPendingByEmail(ctx context.Context, email string) (Invitation, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s
        FROM %s WHERE LOWER(email) = LOWER($1) AND registered_at IS NULL
    `, invitationColumns, UserInvitationsTable), strings.TrimSpace(email))

	invitation, err := scanInvitation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invitation{}, ErrInvitationNotFound
		}
		return Invitation{}, err
	}

	return invitation, nil
}

// ListCompanyInvitations returns every invitation issued for the company,
// consumed ones included (the table is an audit trail).
func (s *InvitationStore) ListCompanyInvitations(ctx context.Context, companyID uuid.UUID) ([]Invitation, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s
        FROM %s WHERE company_id = $1
        ORDER BY created_at ASC
    `, invitationColumns, UserInvitationsTable), companyID)
	if err != nil {
		return nil, fmt.Errorf("list company invitations: %w", err)
	}
	defer rows.Close()

	invitations := make([]Invitation, 0)
	for rows.Next() {
		invitation, scanErr := scanInvitation(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan invitation: %w", scanErr)
		}
		invitations = append(invitations, invitation)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invitations: %w", err)
	}

	return invitations, nil
}

func scanInvitation(row pgx.Row) (Invitation, error) {
	var invitation Invitation
	if err := row.Scan(
		&invitation.InvitationID,
		&invitation.Email,
		&invitation.CompanyID,
		&invitation.RoleID,
		&invitation.Token,
		&invitation.RegisteredAt,
		&invitation.CreatedAt,
	); err != nil {
		return Invitation{}, err
	}
	return invitation, nil
}
