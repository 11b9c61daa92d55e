package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studyshare/studyshare-api/internal/models"
	appErrors "github.com/studyshare/studyshare-api/pkg/errors"
)

type commentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	FindViewByID(ctx context.Context, id string) (*models.CommentView, error)
	ListByResource(ctx context.Context, resourceID string) ([]models.CommentView, error)
}

// AddCommentRequest holds a new discussion message.
type AddCommentRequest struct {
	Message string `json:"message" validate:"required"`
}

// CommentService handles resource discussions.
type CommentService struct {
	repo      commentStore
	resources resourceFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommentService creates an instance of CommentService.
func NewCommentService(repo commentStore, resources resourceFinder, validate *validator.Validate, logger *zap.Logger) *CommentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CommentService{repo: repo, resources: resources, validator: validate, logger: logger}
}

// Add appends a comment to an existing resource and returns the view with
// the author name joined.
func (s *CommentService) Add(ctx context.Context, resourceID, authorID string, req AddCommentRequest) (*models.CommentView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "message is required")
	}

	if err := s.ensureResource(ctx, resourceID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ResourceID: resourceID,
		AuthorID:   authorID,
		Message:    req.Message,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create comment")
	}

	view, err := s.repo.FindViewByID(ctx, comment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}
	return view, nil
}

// ListForResource returns a resource's comments, newest first.
func (s *CommentService) ListForResource(ctx context.Context, resourceID string) ([]models.CommentView, error) {
	if err := s.ensureResource(ctx, resourceID); err != nil {
		return nil, err
	}

	views, err := s.repo.ListByResource(ctx, resourceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comments")
	}
	return views, nil
}

func (s *CommentService) ensureResource(ctx context.Context, resourceID string) error {
	if _, err := s.resources.FindByID(ctx, resourceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	return nil
}
