package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/studyshare/studyshare-api/internal/models"
	appErrors "github.com/studyshare/studyshare-api/pkg/errors"
)

type moderationStore interface {
	FindByID(ctx context.Context, id string) (*models.Resource, error)
	ListPending(ctx context.Context) ([]models.ResourceView, error)
	SetApproved(ctx context.Context, id string, approved bool) error
	Delete(ctx context.Context, id string) error
}

// ModerationService implements the faculty review cycle: pending listing,
// approve and reject.
type ModerationService struct {
	repo    moderationStore
	storage objectStorage
	cache   listingCache
	logger  *zap.Logger
}

// NewModerationService constructs the service.
func NewModerationService(repo moderationStore, storage objectStorage, cache listingCache, logger *zap.Logger) *ModerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModerationService{repo: repo, storage: storage, cache: cache, logger: logger}
}

// ListPending returns all pending resources with uploader details.
func (s *ModerationService) ListPending(ctx context.Context) ([]models.ResourceView, error) {
	views, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending resources")
	}
	return views, nil
}

// Approve transitions a pending resource to approved. Re-approving an
// already approved resource is a no-op.
func (s *ModerationService) Approve(ctx context.Context, id string) error {
	resource, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if resource.Approved {
		return nil
	}

	if err := s.repo.SetApproved(ctx, id, true); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve resource")
	}
	s.invalidateListing(ctx)

	s.logger.Info("resource approved", zap.String("resource_id", id))
	return nil
}

// Reject deletes the resource and its stored file from any state. The file
// delete is best-effort; the metadata row is removed regardless.
func (s *ModerationService) Reject(ctx context.Context, id string) error {
	resource, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, resource.StorageKey); err != nil {
		s.logger.Warn("failed to delete stored file during reject, removing metadata anyway",
			zap.String("resource_id", id),
			zap.String("key", resource.StorageKey),
			zap.Error(err))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete resource")
	}
	s.invalidateListing(ctx)

	s.logger.Info("resource rejected", zap.String("resource_id", id))
	return nil
}

func (s *ModerationService) find(ctx context.Context, id string) (*models.Resource, error) {
	resource, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	return resource, nil
}

func (s *ModerationService) invalidateListing(ctx context.Context) {
	if err := s.cache.DeleteByPattern(ctx, listingCachePrefix+"*"); err != nil {
		s.logger.Warn("listing cache invalidation failed", zap.Error(err))
	}
}
