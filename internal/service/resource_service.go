package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studyshare/studyshare-api/internal/models"
	appErrors "github.com/studyshare/studyshare-api/pkg/errors"
)

const listingCachePrefix = "resources:public:"

type resourceStore interface {
	Create(ctx context.Context, resource *models.Resource) error
	FindByID(ctx context.Context, id string) (*models.Resource, error)
	ListApproved(ctx context.Context, search string) ([]models.ResourceView, error)
	ListByUploader(ctx context.Context, uploaderID string) ([]models.Resource, error)
	UpdateMeta(ctx context.Context, id, title, subject, semester string) error
	Delete(ctx context.Context, id string) error
	UpsertRating(ctx context.Context, resourceID, userID string, value int) (*models.RatingSummary, error)
}

type objectStorage interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type listingCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ResourceUpload carries upload metadata and the file stream.
type ResourceUpload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.ReadSeeker
}

// CreateResourceRequest holds the classification fields of an upload.
type CreateResourceRequest struct {
	Title    string `form:"title" json:"title" validate:"required"`
	Subject  string `form:"subject" json:"subject" validate:"required"`
	Semester string `form:"semester" json:"semester" validate:"required"`
}

// UpdateResourceRequest mutates classification fields. Empty fields keep
// their current value; any edit sends the resource back to review.
type UpdateResourceRequest struct {
	Title    string `json:"title"`
	Subject  string `json:"subject"`
	Semester string `json:"semester"`
}

// RateResourceRequest submits a rating value.
type RateResourceRequest struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
}

// ResourceServiceConfig holds upload validation parameters and cache tuning.
type ResourceServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	CacheTTL     time.Duration
}

// ResourceService implements the resource lifecycle: upload, listing,
// owner edit/delete and rating aggregation.
type ResourceService struct {
	repo      resourceStore
	storage   objectStorage
	cache     listingCache
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ResourceServiceConfig
	mimeSet   map[string]struct{}
}

// NewResourceService constructs the service with defaults.
func NewResourceService(repo resourceStore, storage objectStorage, cache listingCache, validate *validator.Validate, logger *zap.Logger, cfg ResourceServiceConfig) *ResourceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 20 * 1024 * 1024
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	return &ResourceService{
		repo:      repo,
		storage:   storage,
		cache:     cache,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		mimeSet:   mimeSet,
	}
}

// Upload stores the file in object storage and persists metadata in the
// pending state.
func (s *ResourceService) Upload(ctx context.Context, req CreateResourceRequest, upload ResourceUpload, uploaderID string) (*models.Resource, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "title, subject and semester are required")
	}
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "please upload a file")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}

	mimeType, err := s.detectMime(upload)
	if err != nil {
		return nil, err
	}
	if len(s.mimeSet) > 0 {
		if _, allowed := s.mimeSet[strings.ToLower(mimeType)]; !allowed {
			return nil, appErrors.Clone(appErrors.ErrValidation, "file type not allowed")
		}
	}

	key := s.generateKey(upload.Filename)
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}
	url, err := s.storage.Upload(ctx, key, upload.Content, mimeType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store resource file")
	}

	resource := &models.Resource{
		Title:      req.Title,
		Subject:    req.Subject,
		Semester:   req.Semester,
		FileURL:    url,
		StorageKey: key,
		UploaderID: uploaderID,
		Approved:   false,
	}
	if err := s.repo.Create(ctx, resource); err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to clean up stored file after create failure", zap.String("key", key), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create resource")
	}

	return resource, nil
}

// ListPublic returns approved resources matching the optional search term.
// Results are cached; the cache is invalidated on every resource mutation.
func (s *ResourceService) ListPublic(ctx context.Context, search string) ([]models.ResourceView, bool, error) {
	key := listingCacheKey(search)

	var cached []models.ResourceView
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, true, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("listing cache read failed", zap.Error(err))
	}

	views, err := s.repo.ListApproved(ctx, search)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list resources")
	}

	if err := s.cache.Set(ctx, key, views, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("listing cache write failed", zap.Error(err))
	}

	return views, false, nil
}

// Get returns a single resource by ID.
func (s *ResourceService) Get(ctx context.Context, id string) (*models.Resource, error) {
	resource, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	return resource, nil
}

// ListMine returns all resources owned by the caller regardless of state.
func (s *ResourceService) ListMine(ctx context.Context, uploaderID string) ([]models.Resource, error) {
	resources, err := s.repo.ListByUploader(ctx, uploaderID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list resources")
	}
	return resources, nil
}

// Edit mutates the classification fields and unconditionally resets the
// approval flag, even when the payload changes nothing. Owner only.
func (s *ResourceService) Edit(ctx context.Context, id string, req UpdateResourceRequest, actorID string) (*models.Resource, error) {
	resource, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if resource.UploaderID != actorID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user not authorized")
	}

	title := req.Title
	if title == "" {
		title = resource.Title
	}
	subject := req.Subject
	if subject == "" {
		subject = resource.Subject
	}
	semester := req.Semester
	if semester == "" {
		semester = resource.Semester
	}

	if err := s.repo.UpdateMeta(ctx, id, title, subject, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update resource")
	}
	s.invalidateListing(ctx)

	resource.Title = title
	resource.Subject = subject
	resource.Semester = semester
	resource.Approved = false
	return resource, nil
}

// Delete removes an owned resource. The external file delete is best-effort:
// a storage failure is logged and the metadata row is removed regardless.
func (s *ResourceService) Delete(ctx context.Context, id, actorID string) error {
	resource, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if resource.UploaderID != actorID {
		return appErrors.Clone(appErrors.ErrUnauthorized, "user not authorized")
	}

	return s.remove(ctx, resource)
}

// Rate upserts the caller's rating and returns the refreshed rating list
// with the recomputed average.
func (s *ResourceService) Rate(ctx context.Context, id, userID string, req RateResourceRequest) (*models.RatingSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "rating must be between 1 and 5")
	}

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	summary, err := s.repo.UpsertRating(ctx, id, userID, req.Rating)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save rating")
	}
	s.invalidateListing(ctx)

	return summary, nil
}

// remove deletes the external file best-effort, then the metadata row.
func (s *ResourceService) remove(ctx context.Context, resource *models.Resource) error {
	if err := s.storage.Delete(ctx, resource.StorageKey); err != nil {
		s.logger.Warn("failed to delete stored file, removing metadata anyway",
			zap.String("resource_id", resource.ID),
			zap.String("key", resource.StorageKey),
			zap.Error(err))
	}
	if err := s.repo.Delete(ctx, resource.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete resource")
	}
	s.invalidateListing(ctx)
	return nil
}

func (s *ResourceService) invalidateListing(ctx context.Context) {
	if err := s.cache.DeleteByPattern(ctx, listingCachePrefix+"*"); err != nil {
		s.logger.Warn("listing cache invalidation failed", zap.Error(err))
	}
}

func (s *ResourceService) detectMime(upload ResourceUpload) (string, error) {
	buf := make([]byte, 512)
	n, err := upload.Content.Read(buf)
	if err != nil && err != io.EOF {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	detected := http.DetectContentType(buf[:n])
	if detected == "application/octet-stream" && upload.MimeType != "" {
		return upload.MimeType, nil
	}
	return detected, nil
}

func (s *ResourceService) generateKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return uuid.NewString() + ext
}

func listingCacheKey(search string) string {
	if search == "" {
		return listingCachePrefix + "all"
	}
	return listingCachePrefix + strings.ToLower(search)
}
