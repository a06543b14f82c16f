package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tourbase-hq/reservations/platform/go/persistence"
	"github.com/tourbase-hq/reservations/platform/go/requesttrace"
	"github.com/tourbase-hq/reservations/platform/go/role"
	"github.com/tourbase-hq/reservations/platform/go/storage"
)

type mockRepository struct {
	listFn    func(ctx context.Context, companyID uuid.UUID) ([]persistence.Activity, error)
	createFn  func(ctx context.Context, params persistence.CreateActivityParams) (persistence.Activity, error)
	getFn     func(ctx context.Context, id uuid.UUID) (persistence.Activity, error)
	updateFn  func(ctx context.Context, id uuid.UUID, params persistence.UpdateActivityParams) (persistence.Activity, error)
	deleteFn  func(ctx context.Context, id uuid.UUID) error
	getUserFn func(ctx context.Context, id uuid.UUID) (persistence.User, error)
}

func (m *mockRepository) List(ctx context.Context, companyID uuid.UUID) ([]persistence.Activity, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, companyID)
}

func (m *mockRepository) Create(ctx context.Context, params persistence.CreateActivityParams) (persistence.Activity, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, params)
}

func (m *mockRepository) Get(ctx context.Context, id uuid.UUID) (persistence.Activity, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, id)
}

func (m *mockRepository) Update(ctx context.Context, id uuid.UUID, params persistence.UpdateActivityParams) (persistence.Activity, error) {
	if m.updateFn == nil {
		panic("updateFn not configured")
	}
	return m.updateFn(ctx, id, params)
}

func (m *mockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn == nil {
		panic("deleteFn not configured")
	}
	return m.deleteFn(ctx, id)
}

func (m *mockRepository) GetUser(ctx context.Context, id uuid.UUID) (persistence.User, error) {
	if m.getUserFn == nil {
		panic("getUserFn not configured")
	}
	return m.getUserFn(ctx, id)
}

func newTestBlobs(t *testing.T) *storage.LocalStore {
	t.Helper()
	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return blobs
}

func guideUser(companyID, guideID uuid.UUID) persistence.User {
	return persistence.User{
		UserID:    guideID,
		CompanyID: &companyID,
		RoleID:    int(role.Guide),
		Name:      "Guide",
		Email:     "guide@example.com",
	}
}

func validCreateInput(guideID uuid.UUID) CreateInput {
	return CreateInput{
		GuideID:     guideID,
		Name:        "Canyon Hike",
		Description: "Full day hike",
		StartTime:   time.Date(2025, time.July, 1, 9, 0, 0, 0, time.UTC),
		Price:       9999,
	}
}

func TestServiceCreateStoresPriceInMinorUnits(t *testing.T) {
	t.Parallel()

	companyID := uuid.New()
	guideID := uuid.New()

	repo := &mockRepository{}
	repo.getUserFn = func(ctx context.Context, id uuid.UUID) (persistence.User, error) {
		return guideUser(companyID, guideID), nil
	}
	repo.createFn = func(ctx context.Context, params persistence.CreateActivityParams) (persistence.Activity, error) {
		require.EqualValues(t, 999900, params.Price)
		require.Nil(t, params.Image)
		return persistence.Activity{
			ActivityID:  params.ActivityID,
			CompanyID:   params.CompanyID,
			GuideID:     params.GuideID,
			Name:        params.Name,
			Description: params.Description,
			StartTime:   params.StartTime,
			Price:       params.Price,
		}, nil
	}

	svc := New(repo, newTestBlobs(t))
	activity, err := svc.Create(context.Background(), requesttrace.Anonymous("test"), companyID, validCreateInput(guideID))
	require.NoError(t, err)
	require.EqualValues(t, 9999, activity.Price)
}

func TestServiceCreateRejectsForeignGuide(t *testing.T) {
	t.Parallel()

	companyID := uuid.New()
	guideID := uuid.New()

	repo := &mockRepository{}
	repo.getUserFn = func(ctx context.Context, id uuid.UUID) (persistence.User, error) {
		return guideUser(uuid.New(), guideID), nil
	}

	svc := New(repo, newTestBlobs(t))
	_, err := svc.Create(context.Background(), requesttrace.Anonymous("test"), companyID, validCreateInput(guideID))
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	require.Contains(t, validationErr.Fields, "guideId")
}

func TestServiceCreateRejectsNonGuideAssignment(t *testing.T) {
	t.Parallel()

	companyID := uuid.New()
	ownerID := uuid.New()

	repo := &mockRepository{}
	repo.getUserFn = func(ctx context.Context, id uuid.UUID) (persistence.User, error) {
		owner := guideUser(companyID, ownerID)
		owner.RoleID = int(role.CompanyOwner)
		return owner, nil
	}

	svc := New(repo, newTestBlobs(t))
	_, err := svc.Create(context.Background(), requesttrace.Anonymous("test"), companyID, validCreateInput(ownerID))
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	require.Contains(t, validationErr.Fields, "guideId")
}

func TestServiceCreateRejectsNonImageWithoutStoring(t *testing.T) {
	t.Parallel()

	companyID := uuid.New()
	guideID := uuid.New()
	created := false

	repo := &mockRepository{}
	repo.getUserFn = func(ctx context.Context, id uuid.UUID) (persistence.User, error) {
		return guideUser(companyID, guideID), nil
	}
	repo.createFn = func(ctx context.Context, params persistence.CreateActivityParams) (persistence.Activity, error) {
		created = true
		return persistence.Activity{}, nil
	}

	blobDir := t.TempDir()
	blobs, err := storage.NewLocalStore(blobDir)
	require.NoError(t, err)

	svc := New(repo, blobs)

	input := validCreateInput(guideID)
	input.Image = &ImageUpload{
		Filename:    "notes.pdf",
		ContentType: "application/pdf",
		Content:     []byte("%PDF-1.4"),
	}

	_, err = svc.Create(context.Background(), requesttrace.Anonymous("test"), companyID, input)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	require.Contains(t, validationErr.Fields, "image")

	// Rejection leaves nothing behind: no row and no blob.
	require.False(t, created)
	key := storage.HashedKey("activities/"+companyID.String(), input.Image.Filename, input.Image.Content)
	exists, err := blobs.Exists(context.Background(), key)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestServiceCreateStoresImage(t *testing.T) {
	t.Parallel()

	companyID := uuid.New()
	guideID := uuid.New()

	repo := &mockRepository{}
	repo.getUserFn = func(ctx context.Context, id uuid.UUID) (persistence.User, error) {
		return guideUser(companyID, guideID), nil
	}
	repo.createFn = func(ctx context.Context, params persistence.CreateActivityParams) (persistence.Activity, error) {
		require.NotNil(t, params.Image)
		return persistence.Activity{ActivityID: params.ActivityID, Image: params.Image, Price: params.Price}, nil
	}

	blobs := newTestBlobs(t)
	svc := New(repo, blobs)

	input := validCreateInput(guideID)
	input.Image = &ImageUpload{
		Filename:    "photo.png",
		ContentType: "image/png",
		Content:     []byte("fake png bytes"),
	}

	activity, err := svc.Create(context.Background(), requesttrace.Anonymous("test"), companyID, input)
	require.NoError(t, err)
	require.NotNil(t, activity.Image)

	exists, err := blobs.Exists(context.Background(), *activity.Image)
	require.NoError(t, err)
	require.True(t, exists)
}

func TestServiceGetRejectsForeignCompany(t *testing.T) {
	t.Parallel()

	repo := &mockRepository{}
	repo.getFn = func(ctx context.Context, id uuid.UUID) (persistence.Activity, error) {
		return persistence.Activity{ActivityID: id, CompanyID: uuid.New()}, nil
	}

	svc := New(repo, newTestBlobs(t))
	_, err := svc.Get(context.Background(), requesttrace.Anonymous("test"), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceUpdateReassignsGuide(t *testing.T) {
	t.Parallel()

	companyID := uuid.New()
	activityID := uuid.New()
	newGuideID := uuid.New()

	repo := &mockRepository{}
	repo.getFn = func(ctx context.Context, id uuid.UUID) (persistence.Activity, error) {
		return persistence.Activity{ActivityID: activityID, CompanyID: companyID, Price: 500000}, nil
	}
	repo.getUserFn = func(ctx context.Context, id uuid.UUID) (persistence.User, error) {
		require.Equal(t, newGuideID, id)
		return guideUser(companyID, newGuideID), nil
	}
	repo.updateFn = func(ctx context.Context, id uuid.UUID, params persistence.UpdateActivityParams) (persistence.Activity, error) {
		require.NotNil(t, params.GuideID)
		require.Equal(t, newGuideID, *params.GuideID)
		return persistence.Activity{ActivityID: id, CompanyID: companyID, GuideID: *params.GuideID, Price: 500000}, nil
	}

	svc := New(repo, newTestBlobs(t))
	activity, err := svc.Update(context.Background(), requesttrace.Anonymous("test"), companyID, activityID, UpdateInput{GuideID: &newGuideID})
	require.NoError(t, err)
	require.Equal(t, newGuideID, activity.GuideID)
	require.EqualValues(t, 5000, activity.Price)
}

func TestServiceDelete(t *testing.T) {
	t.Parallel()

	companyID := uuid.New()
	activityID := uuid.New()
	deleted := false

	repo := &mockRepository{}
	repo.getFn = func(ctx context.Context, id uuid.UUID) (persistence.Activity, error) {
		return persistence.Activity{ActivityID: activityID, CompanyID: companyID}, nil
	}
	repo.deleteFn = func(ctx context.Context, id uuid.UUID) error {
		require.Equal(t, activityID, id)
		deleted = true
		return nil
	}

	svc := New(repo, newTestBlobs(t))
	require.NoError(t, svc.Delete(context.Background(), requesttrace.Anonymous("test"), companyID, activityID))
	require.True(t, deleted)
}
