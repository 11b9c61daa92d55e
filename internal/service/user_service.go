package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studyshare/studyshare-api/internal/models"
	appErrors "github.com/studyshare/studyshare-api/pkg/errors"
)

type userStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
	ToggleBookmark(ctx context.Context, userID, resourceID string) (bool, []string, error)
	ListBookmarkedResources(ctx context.Context, userID string) ([]models.ResourceView, error)
}

type resourceFinder interface {
	FindByID(ctx context.Context, id string) (*models.Resource, error)
}

// UpdateRoleRequest payload for the admin role mutation.
type UpdateRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,oneof=STUDENT FACULTY ADMIN"`
}

// UserService handles bookmarks and admin user management.
type UserService struct {
	repo      userStore
	resources resourceFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userStore, resources resourceFinder, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, resources: resources, validator: validate, logger: logger}
}

// ToggleBookmark flips the caller's bookmark for a resource. The resource
// must exist; callers can only flip the state, never force it.
func (s *UserService) ToggleBookmark(ctx context.Context, userID, resourceID string) (*models.BookmarkToggle, error) {
	if _, err := s.resources.FindByID(ctx, resourceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}

	added, bookmarks, err := s.repo.ToggleBookmark(ctx, userID, resourceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle bookmark")
	}

	action := "removed"
	if added {
		action = "added"
	}
	return &models.BookmarkToggle{
		Message:   fmt.Sprintf("Bookmark %s successfully.", action),
		Bookmarks: bookmarks,
	}, nil
}

// ListBookmarks returns the caller's bookmarked resources with uploader
// details.
func (s *UserService) ListBookmarks(ctx context.Context, userID string) ([]models.ResourceView, error) {
	views, err := s.repo.ListBookmarkedResources(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookmarks")
	}
	return views, nil
}

// ListUsers returns all users except the calling admin.
func (s *UserService) ListUsers(ctx context.Context, actorID string, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	filter.ExcludeID = actorID
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return users, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// UpdateRole mutates a user's capability tier. Admin only, enforced at the
// route layer; the role value is validated against the closed enumeration.
func (s *UserService) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := s.repo.UpdateRole(ctx, id, req.Role); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}

	s.logger.Info("user role updated", zap.String("user_id", id), zap.String("role", string(req.Role)))
	return nil
}
