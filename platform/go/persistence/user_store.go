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

const UsersTable = "users"

// User represents a row in the users table. CompanyID is nil for
// administrators and customers; DeletedAt marks a soft-deleted account.
type User struct {
	UserID       uuid.UUID  `db:"user_id" json:"userId"`
	CompanyID    *uuid.UUID `db:"company_id" json:"companyId,omitempty"`
	RoleID       int        `db:"role_id" json:"roleId"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	DeletedAt    *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

var (
	// ErrUserNotFound indicates a missing (or soft-deleted) user record.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserConflict indicates a uniqueness violation on the live email index.
	ErrUserConflict = errors.New("user conflict")
)

const userColumns = "user_id, company_id, role_id, name, email, password_hash, deleted_at, created_at, updated_at"

// UserStore exposes persistence helpers for the users table.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore returns a store instance; assumes bootstrap already created the table.
func NewUserStore(ctx context.Context, pool *pgxpool.Pool) (*UserStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &UserStore{pool: pool}, nil
}

// CreateUserParams captures the fields required to insert a new user record.
type CreateUserParams struct {
	UserID       uuid.UUID
	CompanyID    *uuid.UUID
	RoleID       int
	Name         string
	Email        string
	PasswordHash string
}

// CreateUser inserts a new user and returns the persisted record.
func (s *UserStore) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	if params.UserID == uuid.Nil {
		return User{}, errors.New("user id is required")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (user_id, company_id, role_id, name, email, password_hash)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING %s
    `, UsersTable, userColumns),
		params.UserID,
		params.CompanyID,
		params.RoleID,
		strings.TrimSpace(params.Name),
		strings.TrimSpace(params.Email),
		params.PasswordHash,
	)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUserConflict
		}
		return User{}, err
	}

	return user, nil
}

// ListCompanyUsersParams filters the company-scoped user listing.
type ListCompanyUsersParams struct {
	CompanyID      uuid.UUID
	RoleID         int
	IncludeDeleted bool
}

// ListCompanyUsers returns the company's users with the given role. Deleted
// rows are hidden unless IncludeDeleted is set.
func (s *UserStore) ListCompanyUsers(ctx context.Context, params ListCompanyUsersParams) ([]User, error) {
	where := "company_id = $1 AND role_id = $2"
	if !params.IncludeDeleted {
		where += " AND deleted_at IS NULL"
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE %s
        ORDER BY created_at ASC
    `, userColumns, UsersTable, where), params.CompanyID, params.RoleID)
	if err != nil {
		return nil, fmt.Errorf("list company users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		user, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan user: %w", scanErr)
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// GetUser returns a single live user by identifier.
func (s *UserStore) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s
        FROM %s WHERE user_id = $1 AND deleted_at IS NULL
    `, userColumns, UsersTable), id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}

	return user, nil
}

// GetUserIncludeDeleted returns a user regardless of soft-deletion state.
func (s *UserStore) GetUserIncludeDeleted(ctx context.Context, id uuid.UUID) (User, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s
        FROM %s WHERE user_id = $1
    `, userColumns, UsersTable), id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}

	return user, nil
}

// FindUserByEmail returns the live user with the given email, matched case-insensitively.
func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s
        FROM %s WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL
    `, userColumns, UsersTable), strings.TrimSpace(email))

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}

	return user, nil
}

// UpdateUserParams represents fields editable by an authorized actor.
type UpdateUserParams struct {
	Name  *string
	Email *string
}

// UpdateUser applies the provided fields and returns the updated record.
func (s *UserStore) UpdateUser(ctx context.Context, id uuid.UUID, params UpdateUserParams) (User, error) {
	setParts := []string{}
	var args []any

	if params.Name != nil {
		args = append(args, strings.TrimSpace(*params.Name))
		setParts = append(setParts, fmt.Sprintf("name = $%d", len(args)))
	}
	if params.Email != nil {
		args = append(args, strings.TrimSpace(*params.Email))
		setParts = append(setParts, fmt.Sprintf("email = $%d", len(args)))
	}

	if len(setParts) == 0 {
		return User{}, errors.New("no fields to update")
	}

	args = append(args, id)

	query := fmt.Sprintf(`
        UPDATE %s
        SET %s, updated_at = NOW()
        WHERE user_id = $%d AND deleted_at IS NULL
        RETURNING %s
    `, UsersTable, strings.Join(setParts, ", "), len(args), userColumns)

	row := s.pool.QueryRow(ctx, query, args...)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return User{}, ErrUserConflict
		}
		return User{}, err
	}

	return user, nil
}

// SoftDeleteUser marks a user deleted without removing the row.
func (s *UserStore) SoftDeleteUser(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrUserNotFound
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
        UPDATE %s SET deleted_at = NOW(), updated_at = NOW()
        WHERE user_id = $1 AND deleted_at IS NULL
    `, UsersTable), id)
	if err != nil {
		return fmt.Errorf("soft delete user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// RegisterInvitedUser consumes the invitation identified by token and inserts
// the new account in one transaction. The invitation's registered_at is set
// only when it is still pending; the account's company and role always come
// from the invitation row, never from the caller. A crash between the two
// steps rolls back both.
func (s *UserStore) RegisterInvitedUser(ctx context.Context, params CreateUserParams, token string) (User, error) {
	if params.UserID == uuid.Nil {
		return User{}, errors.New("user id is required")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return User{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var companyID uuid.UUID
	var roleID int
	err = tx.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s
        SET registered_at = NOW()
        WHERE token = $1 AND registered_at IS NULL
        RETURNING company_id, role_id
    `, UserInvitationsTable), token).Scan(&companyID, &roleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrInvitationNotPending
		}
		return User{}, fmt.Errorf("consume invitation: %w", err)
	}

	row := tx.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (user_id, company_id, role_id, name, email, password_hash)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING %s
    `, UsersTable, userColumns),
		params.UserID,
		companyID,
		roleID,
		strings.TrimSpace(params.Name),
		strings.TrimSpace(params.Email),
		params.PasswordHash,
	)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUserConflict
		}
		return User{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return User{}, err
	}

	return user, nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	if err := row.Scan(
		&user.UserID,
		&user.CompanyID,
		&user.RoleID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.DeletedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return User{}, err
	}
	return user, nil
}
