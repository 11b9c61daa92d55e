package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studyshare/studyshare-api/internal/models"
)

// CommentRepository provides database access for resource discussions.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new instance of CommentRepository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a comment. Comments are append-only.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO comments (id, resource_id, author_id, message, created_at) VALUES (:id, :resource_id, :author_id, :message, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// FindViewByID returns a single comment joined with its author name.
func (r *CommentRepository) FindViewByID(ctx context.Context, id string) (*models.CommentView, error) {
	const query = `SELECT c.id, c.resource_id, c.author_id, c.message, c.created_at, u.full_name AS author_name FROM comments c JOIN users u ON u.id = c.author_id WHERE c.id = $1 LIMIT 1`
	var view models.CommentView
	if err := r.db.GetContext(ctx, &view, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find comment by id: %w", err)
	}
	return &view, nil
}

// ListByResource returns all comments for a resource, newest first.
func (r *CommentRepository) ListByResource(ctx context.Context, resourceID string) ([]models.CommentView, error) {
	const query = `SELECT c.id, c.resource_id, c.author_id, c.message, c.created_at, u.full_name AS author_name FROM comments c JOIN users u ON u.id = c.author_id WHERE c.resource_id = $1 ORDER BY c.created_at DESC`
	views := make([]models.CommentView, 0)
	if err := r.db.SelectContext(ctx, &views, query, resourceID); err != nil {
		return nil, fmt.Errorf("list comments by resource: %w", err)
	}
	return views, nil
}
