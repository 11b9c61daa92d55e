package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studyshare/studyshare-api/internal/models"
	appErrors "github.com/studyshare/studyshare-api/pkg/errors"
)

type mockResourceStore struct {
	resources    map[string]*models.Resource
	approved     []models.ResourceView
	pending      []models.ResourceView
	updatedMeta  []string
	deleted      []string
	setApproved  []string
	upsertCalls  int
	lastRating   int
	summary      *models.RatingSummary
	createErr    error
	findErr      error
	updateErr    error
	deleteErr    error
	upsertErr    error
	setApprErr   error
	listPendErr  error
	listApprvErr error
}

func newMockResourceStore() *mockResourceStore {
	return &mockResourceStore{resources: make(map[string]*models.Resource)}
}

func (m *mockResourceStore) Create(ctx context.Context, resource *models.Resource) error {
	if m.createErr != nil {
		return m.createErr
	}
	if resource.ID == "" {
		resource.ID = "r1"
	}
	m.resources[resource.ID] = resource
	return nil
}

func (m *mockResourceStore) FindByID(ctx context.Context, id string) (*models.Resource, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	resource, ok := m.resources[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *resource
	return &copied, nil
}

func (m *mockResourceStore) ListApproved(ctx context.Context, search string) ([]models.ResourceView, error) {
	if m.listApprvErr != nil {
		return nil, m.listApprvErr
	}
	return m.approved, nil
}

func (m *mockResourceStore) ListByUploader(ctx context.Context, uploaderID string) ([]models.Resource, error) {
	var out []models.Resource
	for _, r := range m.resources {
		if r.UploaderID == uploaderID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockResourceStore) ListPending(ctx context.Context) ([]models.ResourceView, error) {
	if m.listPendErr != nil {
		return nil, m.listPendErr
	}
	return m.pending, nil
}

func (m *mockResourceStore) UpdateMeta(ctx context.Context, id, title, subject, semester string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updatedMeta = append(m.updatedMeta, id)
	if r, ok := m.resources[id]; ok {
		r.Title = title
		r.Subject = subject
		r.Semester = semester
		r.Approved = false
	}
	return nil
}

func (m *mockResourceStore) SetApproved(ctx context.Context, id string, approved bool) error {
	if m.setApprErr != nil {
		return m.setApprErr
	}
	m.setApproved = append(m.setApproved, id)
	if r, ok := m.resources[id]; ok {
		r.Approved = approved
	}
	return nil
}

func (m *mockResourceStore) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	delete(m.resources, id)
	return nil
}

func (m *mockResourceStore) UpsertRating(ctx context.Context, resourceID, userID string, value int) (*models.RatingSummary, error) {
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	m.upsertCalls++
	m.lastRating = value
	return m.summary, nil
}

type mockObjectStorage struct {
	uploads   map[string]string
	deleted   []string
	uploadErr error
	deleteErr error
}

func newMockObjectStorage() *mockObjectStorage {
	return &mockObjectStorage{uploads: make(map[string]string)}
}

func (m *mockObjectStorage) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	m.uploads[key] = contentType
	return "https://storage.example.com/" + key, nil
}

func (m *mockObjectStorage) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return m.deleteErr
}

type mockListingCache struct {
	entries  map[string][]byte
	purged   []string
	getErr   error
	setErr   error
	purgeErr error
}

func newMockListingCache() *mockListingCache {
	return &mockListingCache{entries: make(map[string][]byte)}
}

func (m *mockListingCache) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockListingCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *mockListingCache) DeleteByPattern(ctx context.Context, pattern string) error {
	if m.purgeErr != nil {
		return m.purgeErr
	}
	m.purged = append(m.purged, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func newResourceService(store *mockResourceStore, storage *mockObjectStorage, cache *mockListingCache) *ResourceService {
	return NewResourceService(store, storage, cache, validator.New(), zap.NewNop(), ResourceServiceConfig{
		MaxFileSize:  1024 * 1024,
		AllowedMIMEs: []string{"application/pdf", "text/plain; charset=utf-8"},
		CacheTTL:     time.Minute,
	})
}

func pdfUpload() ResourceUpload {
	content := []byte("%PDF-1.4 minimal test document body")
	return ResourceUpload{
		Filename: "notes.pdf",
		Size:     int64(len(content)),
		MimeType: "application/pdf",
		Content:  bytes.NewReader(content),
	}
}

func TestResourceUploadStartsPending(t *testing.T) {
	store := newMockResourceStore()
	storage := newMockObjectStorage()
	svc := newResourceService(store, storage, newMockListingCache())

	req := CreateResourceRequest{Title: "Calculus Notes", Subject: "Math", Semester: "3"}
	resource, err := svc.Upload(context.Background(), req, pdfUpload(), "u1")
	require.NoError(t, err)

	assert.False(t, resource.Approved)
	assert.Equal(t, "u1", resource.UploaderID)
	assert.NotEmpty(t, resource.StorageKey)
	assert.True(t, strings.HasSuffix(resource.StorageKey, ".pdf"))
	assert.Equal(t, "https://storage.example.com/"+resource.StorageKey, resource.FileURL)
	assert.Equal(t, "application/pdf", storage.uploads[resource.StorageKey])
}

func TestResourceUploadRequiresFields(t *testing.T) {
	svc := newResourceService(newMockResourceStore(), newMockObjectStorage(), newMockListingCache())

	_, err := svc.Upload(context.Background(), CreateResourceRequest{Title: "only a title"}, pdfUpload(), "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResourceUploadRequiresFile(t *testing.T) {
	svc := newResourceService(newMockResourceStore(), newMockObjectStorage(), newMockListingCache())

	req := CreateResourceRequest{Title: "Calculus Notes", Subject: "Math", Semester: "3"}
	_, err := svc.Upload(context.Background(), req, ResourceUpload{}, "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResourceUploadRejectsOversizedFile(t *testing.T) {
	svc := newResourceService(newMockResourceStore(), newMockObjectStorage(), newMockListingCache())

	upload := pdfUpload()
	upload.Size = 10 * 1024 * 1024
	req := CreateResourceRequest{Title: "Calculus Notes", Subject: "Math", Semester: "3"}
	_, err := svc.Upload(context.Background(), req, upload, "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResourceUploadRejectsDisallowedType(t *testing.T) {
	store := newMockResourceStore()
	storage := newMockObjectStorage()
	svc := NewResourceService(store, storage, newMockListingCache(), validator.New(), zap.NewNop(), ResourceServiceConfig{
		MaxFileSize:  1024,
		AllowedMIMEs: []string{"application/pdf"},
		CacheTTL:     time.Minute,
	})

	content := []byte("just some plain text notes")
	upload := ResourceUpload{Filename: "notes.txt", Size: int64(len(content)), Content: bytes.NewReader(content)}
	req := CreateResourceRequest{Title: "Notes", Subject: "Math", Semester: "3"}
	_, err := svc.Upload(context.Background(), req, upload, "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, storage.uploads)
}

func TestResourceUploadCleansUpOnCreateFailure(t *testing.T) {
	store := newMockResourceStore()
	store.createErr = errors.New("insert failed")
	storage := newMockObjectStorage()
	svc := newResourceService(store, storage, newMockListingCache())

	req := CreateResourceRequest{Title: "Calculus Notes", Subject: "Math", Semester: "3"}
	_, err := svc.Upload(context.Background(), req, pdfUpload(), "u1")
	require.Error(t, err)
	require.Len(t, storage.deleted, 1)
	assert.Contains(t, storage.uploads, storage.deleted[0])
}

func TestListPublicCachesListing(t *testing.T) {
	store := newMockResourceStore()
	store.approved = []models.ResourceView{
		{Resource: models.Resource{ID: "r1", Title: "Calculus Notes", Approved: true}, UploaderName: "Ada"},
	}
	cache := newMockListingCache()
	svc := newResourceService(store, newMockObjectStorage(), cache)

	views, hit, err := svc.ListPublic(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, views, 1)

	views, hit, err = svc.ListPublic(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, hit)
	require.Len(t, views, 1)
	assert.Equal(t, "r1", views[0].ID)
}

func TestListPublicSearchUsesDistinctCacheKeys(t *testing.T) {
	store := newMockResourceStore()
	cache := newMockListingCache()
	svc := newResourceService(store, newMockObjectStorage(), cache)

	_, _, err := svc.ListPublic(context.Background(), "")
	require.NoError(t, err)
	_, _, err = svc.ListPublic(context.Background(), "Calculus")
	require.NoError(t, err)

	assert.Contains(t, cache.entries, listingCachePrefix+"all")
	assert.Contains(t, cache.entries, listingCachePrefix+"calculus")
}

func TestEditResetsApprovalEvenWhenUnchanged(t *testing.T) {
	store := newMockResourceStore()
	store.resources["r1"] = &models.Resource{
		ID: "r1", Title: "Calculus Notes", Subject: "Math", Semester: "3",
		UploaderID: "u1", Approved: true,
	}
	cache := newMockListingCache()
	cache.entries[listingCachePrefix+"all"] = []byte("[]")
	svc := newResourceService(store, newMockObjectStorage(), cache)

	// Identical payload still sends the resource back to review.
	updated, err := svc.Edit(context.Background(), "r1", UpdateResourceRequest{
		Title: "Calculus Notes", Subject: "Math", Semester: "3",
	}, "u1")
	require.NoError(t, err)

	assert.False(t, updated.Approved)
	assert.Equal(t, []string{"r1"}, store.updatedMeta)
	assert.NotContains(t, cache.entries, listingCachePrefix+"all")
}

func TestEditKeepsOldValuesForEmptyFields(t *testing.T) {
	store := newMockResourceStore()
	store.resources["r1"] = &models.Resource{
		ID: "r1", Title: "Calculus Notes", Subject: "Math", Semester: "3",
		UploaderID: "u1", Approved: true,
	}
	svc := newResourceService(store, newMockObjectStorage(), newMockListingCache())

	updated, err := svc.Edit(context.Background(), "r1", UpdateResourceRequest{Title: "Linear Algebra Notes"}, "u1")
	require.NoError(t, err)

	assert.Equal(t, "Linear Algebra Notes", updated.Title)
	assert.Equal(t, "Math", updated.Subject)
	assert.Equal(t, "3", updated.Semester)
	assert.False(t, updated.Approved)
}

func TestEditNonOwnerUnauthorized(t *testing.T) {
	store := newMockResourceStore()
	store.resources["r1"] = &models.Resource{ID: "r1", Title: "Notes", UploaderID: "u1"}
	svc := newResourceService(store, newMockObjectStorage(), newMockListingCache())

	_, err := svc.Edit(context.Background(), "r1", UpdateResourceRequest{Title: "Hijacked"}, "u2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.updatedMeta)
}

func TestEditMissingResource(t *testing.T) {
	svc := newResourceService(newMockResourceStore(), newMockObjectStorage(), newMockListingCache())

	_, err := svc.Edit(context.Background(), "ghost", UpdateResourceRequest{}, "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeleteNonOwnerUnauthorized(t *testing.T) {
	store := newMockResourceStore()
	store.resources["r1"] = &models.Resource{ID: "r1", UploaderID: "u1", StorageKey: "k1"}
	storage := newMockObjectStorage()
	svc := newResourceService(store, storage, newMockListingCache())

	err := svc.Delete(context.Background(), "r1", "u2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
	assert.Empty(t, storage.deleted)
	assert.Empty(t, store.deleted)
}

func TestDeleteRemovesFileAndRow(t *testing.T) {
	store := newMockResourceStore()
	store.resources["r1"] = &models.Resource{ID: "r1", UploaderID: "u1", StorageKey: "k1"}
	storage := newMockObjectStorage()
	cache := newMockListingCache()
	svc := newResourceService(store, storage, cache)

	require.NoError(t, svc.Delete(context.Background(), "r1", "u1"))
	assert.Equal(t, []string{"k1"}, storage.deleted)
	assert.Equal(t, []string{"r1"}, store.deleted)
	assert.Equal(t, []string{listingCachePrefix + "*"}, cache.purged)
}

func TestDeleteStorageFailureStillRemovesRow(t *testing.T) {
	store := newMockResourceStore()
	store.resources["r1"] = &models.Resource{ID: "r1", UploaderID: "u1", StorageKey: "k1"}
	storage := newMockObjectStorage()
	storage.deleteErr = errors.New("bucket unreachable")
	svc := newResourceService(store, storage, newMockListingCache())

	require.NoError(t, svc.Delete(context.Background(), "r1", "u1"))
	assert.Equal(t, []string{"r1"}, store.deleted)
}

func TestRateRejectsOutOfRangeValues(t *testing.T) {
	store := newMockResourceStore()
	store.resources["r1"] = &models.Resource{ID: "r1", UploaderID: "u1"}
	svc := newResourceService(store, newMockObjectStorage(), newMockListingCache())

	for _, value := range []int{0, 6, -1} {
		_, err := svc.Rate(context.Background(), "r1", "u2", RateResourceRequest{Rating: value})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	assert.Zero(t, store.upsertCalls)
}

func TestRateMissingResource(t *testing.T) {
	svc := newResourceService(newMockResourceStore(), newMockObjectStorage(), newMockListingCache())

	_, err := svc.Rate(context.Background(), "ghost", "u2", RateResourceRequest{Rating: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRateUpsertsAndInvalidatesListing(t *testing.T) {
	store := newMockResourceStore()
	store.resources["r1"] = &models.Resource{ID: "r1", UploaderID: "u1"}
	store.summary = &models.RatingSummary{
		Ratings:       []models.Rating{{ResourceID: "r1", UserID: "u2", Value: 4}},
		AverageRating: 4,
	}
	cache := newMockListingCache()
	cache.entries[listingCachePrefix+"all"] = []byte("[]")
	svc := newResourceService(store, newMockObjectStorage(), cache)

	summary, err := svc.Rate(context.Background(), "r1", "u2", RateResourceRequest{Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, store.lastRating)
	assert.InDelta(t, 4.0, summary.AverageRating, 0.001)
	assert.NotContains(t, cache.entries, listingCachePrefix+"all")

	// Re-rating replaces the previous value, it never adds a second row.
	store.summary = &models.RatingSummary{
		Ratings:       []models.Rating{{ResourceID: "r1", UserID: "u2", Value: 2}},
		AverageRating: 2,
	}
	summary, err = svc.Rate(context.Background(), "r1", "u2", RateResourceRequest{Rating: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, store.lastRating)
	assert.Equal(t, 2, store.upsertCalls)
	require.Len(t, summary.Ratings, 1)
	assert.InDelta(t, 2.0, summary.AverageRating, 0.001)
}
