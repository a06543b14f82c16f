package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domainrepo "github.com/tourbase-hq/reservations/domains/activities/be/repo"
	"github.com/tourbase-hq/reservations/platform/go/persistence"
	"github.com/tourbase-hq/reservations/platform/go/requesttrace"
	"github.com/tourbase-hq/reservations/platform/go/role"
	"github.com/tourbase-hq/reservations/platform/go/storage"
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

// ErrNotFound indicates the activity does not exist within the requested company.
var ErrNotFound = errors.New("activity not found")

// priceScale converts between the major currency units accepted on the API
// and the minor units kept in the database.
const priceScale = 100

// Activity is the domain view of a bookable activity. Price is in major
// currency units.
type Activity struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	GuideID     uuid.UUID
	Name        string
	Description string
	StartTime   time.Time
	Price       int64
	Image       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ImageUpload carries a photo submitted with an activity. ContentType is the
// declared multipart type; it is checked before anything is stored.
type ImageUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// CreateInput defines the payload required to create an activity.
type CreateInput struct {
	GuideID     uuid.UUID
	Name        string
	Description string
	StartTime   time.Time
	Price       int64
	Image       *ImageUpload
}

// UpdateInput defines the fields that can be modified on an activity.
// Nil fields are left untouched.
type UpdateInput struct {
	GuideID     *uuid.UUID
	Name        *string
	Description *string
	StartTime   *time.Time
	Price       *int64
	Image       *ImageUpload
}

// Service exposes the activities domain operations, all company-scoped.
type Service interface {
	List(ctx context.Context, audit requesttrace.AuditInfo, companyID uuid.UUID) ([]Activity, error)
	Create(ctx context.Context, audit requesttrace.AuditInfo, companyID uuid.UUID, input CreateInput) (Activity, error)
	Get(ctx context.Context, audit requesttrace.AuditInfo, companyID, activityID uuid.UUID) (Activity, error)
	Update(ctx context.Context, audit requesttrace.AuditInfo, companyID, activityID uuid.UUID, input UpdateInput) (Activity, error)
	Delete(ctx context.Context, audit requesttrace.AuditInfo, companyID, activityID uuid.UUID) error
}

type service struct {
	repo  domainrepo.Repository
	blobs storage.BlobStore
}

// New builds an activities Service backed by the provided repository and blob store.
func New(repo domainrepo.Repository, blobs storage.BlobStore) Service {
	return &service{repo: repo, blobs: blobs}
}

func (s *service) List(ctx context.Context, audit requesttrace.AuditInfo, companyID uuid.UUID) ([]Activity, error) { //nolint:revive
	records, err := s.repo.List(ctx, companyID)
	if err != nil {
		return nil, err
	}

	activities := make([]Activity, 0, len(records))
	for _, record := range records {
		activities = append(activities, mapActivity(record))
	}

	return activities, nil
}

func (s *service) Create(ctx context.Context, audit requesttrace.AuditInfo, companyID uuid.UUID, input CreateInput) (Activity, error) { //nolint:revive
	errs := FieldErrors{}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		errs.add("name", "name is required")
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		errs.add("description", "description is required")
	}
	if input.StartTime.IsZero() {
		errs.add("startTime", "start time is required")
	}
	if input.Price <= 0 {
		errs.add("price", "price must be greater than zero")
	}
	validateImage(input.Image, errs)

	// The guide claim is never trusted from the client; it must resolve to a
	// live guide of this company.
	if err := s.ensureGuideInCompany(ctx, companyID, input.GuideID, errs); err != nil {
		return Activity{}, err
	}

	if len(errs) > 0 {
		return Activity{}, &ValidationError{Fields: errs}
	}

	// All validation passed; only now may the blob land in storage.
	imageRef, err := s.storeImage(ctx, companyID, input.Image)
	if err != nil {
		return Activity{}, err
	}

	record, err := s.repo.Create(ctx, persistence.CreateActivityParams{
		ActivityID:  uuid.New(),
		CompanyID:   companyID,
		GuideID:     input.GuideID,
		Name:        name,
		Description: description,
		StartTime:   input.StartTime,
		Price:       input.Price * priceScale,
		Image:       imageRef,
	})
	if err != nil {
		return Activity{}, err
	}

	return mapActivity(record), nil
}

func (s *service) Get(ctx context.Context, audit requesttrace.AuditInfo, companyID, activityID uuid.UUID) (Activity, error) { //nolint:revive
	record, err := s.ownedBy(ctx, companyID, activityID)
	if err != nil {
		return Activity{}, err
	}
	return mapActivity(record), nil
}

func (s *service) Update(ctx context.Context, audit requesttrace.AuditInfo, companyID, activityID uuid.UUID, input UpdateInput) (Activity, error) { //nolint:revive
	if _, err := s.ownedBy(ctx, companyID, activityID); err != nil {
		return Activity{}, err
	}

	errs := FieldErrors{}
	params := persistence.UpdateActivityParams{}

	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			errs.add("name", "name is required")
		} else {
			params.Name = &trimmed
		}
	}
	if input.Description != nil {
		trimmed := strings.TrimSpace(*input.Description)
		if trimmed == "" {
			errs.add("description", "description is required")
		} else {
			params.Description = &trimmed
		}
	}
	if input.StartTime != nil {
		if input.StartTime.IsZero() {
			errs.add("startTime", "start time is required")
		} else {
			params.StartTime = input.StartTime
		}
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			errs.add("price", "price must be greater than zero")
		} else {
			minor := *input.Price * priceScale
			params.Price = &minor
		}
	}
	validateImage(input.Image, errs)

	if input.GuideID != nil {
		if err := s.ensureGuideInCompany(ctx, companyID, *input.GuideID, errs); err != nil {
			return Activity{}, err
		}
		params.GuideID = input.GuideID
	}

	if input.GuideID == nil && input.Name == nil && input.Description == nil &&
		input.StartTime == nil && input.Price == nil && input.Image == nil {
		errs.add("body", "at least one field must be provided")
	}

	if len(errs) > 0 {
		return Activity{}, &ValidationError{Fields: errs}
	}

	if input.Image != nil {
		imageRef, err := s.storeImage(ctx, companyID, input.Image)
		if err != nil {
			return Activity{}, err
		}
		params.Image = imageRef
	}

	record, err := s.repo.Update(ctx, activityID, params)
	if err != nil {
		if errors.Is(err, persistence.ErrActivityNotFound) {
			return Activity{}, ErrNotFound
		}
		return Activity{}, err
	}

	return mapActivity(record), nil
}

func (s *service) Delete(ctx context.Context, audit requesttrace.AuditInfo, companyID, activityID uuid.UUID) error { //nolint:revive
	if _, err := s.ownedBy(ctx, companyID, activityID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, activityID); err != nil {
		if errors.Is(err, persistence.ErrActivityNotFound) {
			return ErrNotFound
		}
		return err
	}

	return nil
}

// ownedBy loads the activity and confirms it belongs to the company.
func (s *service) ownedBy(ctx context.Context, companyID, activityID uuid.UUID) (persistence.Activity, error) {
	record, err := s.repo.Get(ctx, activityID)
	if err != nil {
		if errors.Is(err, persistence.ErrActivityNotFound) {
			return persistence.Activity{}, ErrNotFound
		}
		return persistence.Activity{}, err
	}

	if record.CompanyID != companyID {
		return persistence.Activity{}, ErrNotFound
	}

	return record, nil
}

func (s *service) ensureGuideInCompany(ctx context.Context, companyID, guideID uuid.UUID, errs FieldErrors) error {
	if guideID == uuid.Nil {
		errs.add("guideId", "guide is required")
		return nil
	}

	guide, err := s.repo.GetUser(ctx, guideID)
	if err != nil {
		if errors.Is(err, persistence.ErrUserNotFound) {
			errs.add("guideId", "guide not found in company")
			return nil
		}
		return err
	}

	if guide.RoleID != int(role.Guide) || guide.CompanyID == nil || *guide.CompanyID != companyID {
		errs.add("guideId", "guide not found in company")
	}

	return nil
}

func validateImage(image *ImageUpload, errs FieldErrors) {
	if image == nil {
		return
	}
	if len(image.Content) == 0 {
		errs.add("image", "image file is empty")
		return
	}
	if !storage.IsImageContentType(image.ContentType) {
		errs.add("image", "file must be an image")
	}
}

func (s *service) storeImage(ctx context.Context, companyID uuid.UUID, image *ImageUpload) (*string, error) {
	if image == nil {
		return nil, nil
	}

	key := storage.HashedKey(fmt.Sprintf("activities/%s", companyID), image.Filename, image.Content)
	ref, err := s.blobs.Save(ctx, key, image.ContentType, bytes.NewReader(image.Content))
	if err != nil {
		return nil, fmt.Errorf("store activity image: %w", err)
	}
	return &ref, nil
}

func mapActivity(record persistence.Activity) Activity {
	return Activity{
		ID:          record.ActivityID,
		CompanyID:   record.CompanyID,
		GuideID:     record.GuideID,
		Name:        record.Name,
		Description: record.Description,
		StartTime:   record.StartTime,
		Price:       record.Price / priceScale,
		Image:       record.Image,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func (f FieldErrors) add(field, message string) {
	if _, ok := f[field]; !ok {
		f[field] = []string{message}
		return
	}
	f[field] = append(f[field], message)
}
