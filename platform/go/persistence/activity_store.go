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

const ActivitiesTable = "activities"

// Activity represents a row in the activities table. Price is stored in minor
// currency units (cents).
type Activity struct {
	ActivityID  uuid.UUID `db:"activity_id" json:"activityId"`
	CompanyID   uuid.UUID `db:"company_id" json:"companyId"`
	GuideID     uuid.UUID `db:"guide_id" json:"guideId"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	StartTime   time.Time `db:"start_time" json:"startTime"`
	Price       int64     `db:"price" json:"price"`
	Image       *string   `db:"image" json:"image,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// ErrActivityNotFound indicates a missing activity record.
var ErrActivityNotFound = errors.New("activity not found")

const activityColumns = "activity_id, company_id, guide_id, name, description, start_time, price, image, created_at, updated_at"

// ActivityStore exposes persistence helpers for the activities table.
type ActivityStore struct {
	pool *pgxpool.Pool
}

// NewActivityStore returns a store instance; assumes bootstrap already created the table.
func NewActivityStore(ctx context.Context, pool *pgxpool.Pool) (*ActivityStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &ActivityStore{pool: pool}, nil
}

// CreateActivityParams captures the fields required to insert an activity.
type CreateActivityParams struct {
	ActivityID  uuid.UUID
	CompanyID   uuid.UUID
	GuideID     uuid.UUID
	Name        string
	Description string
	StartTime   time.Time
	Price       int64
	Image       *string
}

// CreateActivity inserts a new activity and returns the persisted record.
func (s *ActivityStore) CreateActivity(ctx context.Context, params CreateActivityParams) (Activity, error) {
	if params.ActivityID == uuid.Nil {
		return Activity{}, errors.New("activity id is required")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (activity_id, company_id, guide_id, name, description, start_time, price, image)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING %s
    `, ActivitiesTable, activityColumns),
		params.ActivityID,
		params.CompanyID,
		params.GuideID,
		strings.TrimSpace(params.Name),
		strings.TrimSpace(params.Description),
		params.StartTime,
		params.Price,
		params.Image,
	)

	return scanActivity(row)
}

// ListCompanyActivities returns the company's activities ordered by start time.
func (s *ActivityStore) ListCompanyActivities(ctx context.Context, companyID uuid.UUID) ([]Activity, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
        SELECT %s
        FROM %s WHERE company_id = $1
        ORDER BY start_time ASC
    `, activityColumns, ActivitiesTable), companyID)
	if err != nil {
		return nil, fmt.Errorf("list company activities: %w", err)
	}
	defer rows.Close()

	activities := make([]Activity, 0)
	for rows.Next() {
		activity, scanErr := scanActivity(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan activity: %w", scanErr)
		}
		activities = append(activities, activity)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}

	return activities, nil
}

// GetActivity returns a single activity by identifier.
func (s *ActivityStore) GetActivity(ctx context.Context, id uuid.UUID) (Activity, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT %s
        FROM %s WHERE activity_id = $1
    `, activityColumns, ActivitiesTable), id)

	activity, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Activity{}, ErrActivityNotFound
		}
		return Activity{}, err
	}

	return activity, nil
}

// UpdateActivityParams represents fields editable by an authorized actor.
// Nil fields are left untouched.
type UpdateActivityParams struct {
	GuideID     *uuid.UUID
	Name        *string
	Description *string
	StartTime   *time.Time
	Price       *int64
	Image       *string
}

// UpdateActivity applies the provided fields and returns the updated record.
func (s *ActivityStore) UpdateActivity(ctx context.Context, id uuid.UUID, params UpdateActivityParams) (Activity, error) {
	setParts := []string{}
	var args []any

	if params.GuideID != nil {
		args = append(args, *params.GuideID)
		setParts = append(setParts, fmt.Sprintf("guide_id = $%d", len(args)))
	}
	if params.Name != nil {
		args = append(args, strings.TrimSpace(*params.Name))
		setParts = append(setParts, fmt.Sprintf("name = $%d", len(args)))
	}
	if params.Description != nil {
		args = append(args, strings.TrimSpace(*params.Description))
		setParts = append(setParts, fmt.Sprintf("description = $%d", len(args)))
	}
	if params.StartTime != nil {
		args = append(args, *params.StartTime)
		setParts = append(setParts, fmt.Sprintf("start_time = $%d", len(args)))
	}
	if params.Price != nil {
		args = append(args, *params.Price)
		setParts = append(setParts, fmt.Sprintf("price = $%d", len(args)))
	}
	if params.Image != nil {
		args = append(args, *params.Image)
		setParts = append(setParts, fmt.Sprintf("image = $%d", len(args)))
	}

	if len(setParts) == 0 {
		return Activity{}, errors.New("no fields to update")
	}

	args = append(args, id)

	query := fmt.Sprintf(`
        UPDATE %s
        SET %s, updated_at = NOW()
        WHERE activity_id = $%d
        RETURNING %s
    `, ActivitiesTable, strings.Join(setParts, ", "), len(args), activityColumns)

	row := s.pool.QueryRow(ctx, query, args...)

	activity, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Activity{}, ErrActivityNotFound
		}
		return Activity{}, err
	}

	return activity, nil
}

// DeleteActivity removes an activity by identifier. Hard delete, unlike users.
func (s *ActivityStore) DeleteActivity(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrActivityNotFound
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE activity_id = $1`, ActivitiesTable), id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrActivityNotFound
	}

	return nil
}

func scanActivity(row pgx.Row) (Activity, error) {
	var activity Activity
	if err := row.Scan(
		&activity.ActivityID,
		&activity.CompanyID,
		&activity.GuideID,
		&activity.Name,
		&activity.Description,
		&activity.StartTime,
		&activity.Price,
		&activity.Image,
		&activity.CreatedAt,
		&activity.UpdatedAt,
	); err != nil {
		return Activity{}, err
	}
	return activity, nil
}
