package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studyshare/studyshare-api/internal/models"
)

const resourceViewColumns = `r.id, r.title, r.subject, r.semester, r.file_url, r.storage_key, r.uploader_id, r.approved, r.average_rating, r.created_at, r.updated_at, u.full_name AS uploader_name, u.email AS uploader_email`

// ResourceRepository provides database access for resources, ratings and
// the moderation workflow.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository creates a new instance of ResourceRepository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Create inserts a new resource in the pending state.
func (r *ResourceRepository) Create(ctx context.Context, resource *models.Resource) error {
	if resource.ID == "" {
		resource.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if resource.CreatedAt.IsZero() {
		resource.CreatedAt = now
	}
	resource.UpdatedAt = now

	const query = `INSERT INTO resources (id, title, subject, semester, file_url, storage_key, uploader_id, approved, average_rating, created_at, updated_at) VALUES (:id, :title, :subject, :semester, :file_url, :storage_key, :uploader_id, :approved, :average_rating, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, resource); err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// FindByID returns a resource by identifier.
func (r *ResourceRepository) FindByID(ctx context.Context, id string) (*models.Resource, error) {
	const query = `SELECT id, title, subject, semester, file_url, storage_key, uploader_id, approved, average_rating, created_at, updated_at FROM resources WHERE id = $1 LIMIT 1`
	var resource models.Resource
	if err := r.db.GetContext(ctx, &resource, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find resource by id: %w", err)
	}
	return &resource, nil
}

// ListApproved returns approved resources joined with uploader details,
// optionally filtered by a case-insensitive substring match on title or
// subject.
func (r *ResourceRepository) ListApproved(ctx context.Context, search string) ([]models.ResourceView, error) {
	query := `SELECT ` + resourceViewColumns + ` FROM resources r JOIN users u ON u.id = r.uploader_id WHERE r.approved = TRUE`
	var args []interface{}
	if search != "" {
		query += ` AND (LOWER(r.title) LIKE $1 OR LOWER(r.subject) LIKE $1)`
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += ` ORDER BY r.created_at DESC`

	views := make([]models.ResourceView, 0)
	if err := r.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, fmt.Errorf("list approved resources: %w", err)
	}
	return views, nil
}

// ListByUploader returns all resources owned by a user regardless of state.
func (r *ResourceRepository) ListByUploader(ctx context.Context, uploaderID string) ([]models.Resource, error) {
	const query = `SELECT id, title, subject, semester, file_url, storage_key, uploader_id, approved, average_rating, created_at, updated_at FROM resources WHERE uploader_id = $1 ORDER BY created_at DESC`
	resources := make([]models.Resource, 0)
	if err := r.db.SelectContext(ctx, &resources, query, uploaderID); err != nil {
		return nil, fmt.Errorf("list resources by uploader: %w", err)
	}
	return resources, nil
}

// ListPending returns all pending resources with uploader details.
func (r *ResourceRepository) ListPending(ctx context.Context) ([]models.ResourceView, error) {
	query := `SELECT ` + resourceViewColumns + ` FROM resources r JOIN users u ON u.id = r.uploader_id WHERE r.approved = FALSE ORDER BY r.created_at ASC`
	views := make([]models.ResourceView, 0)
	if err := r.db.SelectContext(ctx, &views, query); err != nil {
		return nil, fmt.Errorf("list pending resources: %w", err)
	}
	return views, nil
}

// UpdateMeta mutates the classification fields and resets the approval flag,
// sending the resource back for review.
func (r *ResourceRepository) UpdateMeta(ctx context.Context, id, title, subject, semester string) error {
	const query = `UPDATE resources SET title = $2, subject = $3, semester = $4, approved = FALSE, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, title, subject, semester, time.Now().UTC()); err != nil {
		return fmt.Errorf("update resource meta: %w", err)
	}
	return nil
}

// SetApproved flips the approval flag.
func (r *ResourceRepository) SetApproved(ctx context.Context, id string, approved bool) error {
	const query = `UPDATE resources SET approved = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, approved, time.Now().UTC()); err != nil {
		return fmt.Errorf("set resource approved: %w", err)
	}
	return nil
}

// Delete removes the resource row; ratings, bookmarks and comments cascade
// via foreign keys.
func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM resources WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	return nil
}

// UpsertRating writes the user's rating (last write wins per user) and
// recomputes the derived average in the same transaction, so concurrent
// submissions cannot lose updates.
func (r *ResourceRepository) UpsertRating(ctx context.Context, resourceID, userID string, value int) (*models.RatingSummary, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rating tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	const upsert = `INSERT INTO resource_ratings (resource_id, user_id, rating, created_at, updated_at) VALUES ($1, $2, $3, $4, $4) ON CONFLICT (resource_id, user_id) DO UPDATE SET rating = EXCLUDED.rating, updated_at = EXCLUDED.updated_at`
	if _, err := tx.ExecContext(ctx, upsert, resourceID, userID, value, now); err != nil {
		return nil, fmt.Errorf("upsert rating: %w", err)
	}

	const recompute = `UPDATE resources SET average_rating = COALESCE((SELECT AVG(rating) FROM resource_ratings WHERE resource_id = $1), 0), updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, recompute, resourceID, now); err != nil {
		return nil, fmt.Errorf("recompute average rating: %w", err)
	}

	ratings := make([]models.Rating, 0)
	const listRatings = `SELECT resource_id, user_id, rating, created_at, updated_at FROM resource_ratings WHERE resource_id = $1 ORDER BY created_at ASC`
	if err := tx.SelectContext(ctx, &ratings, listRatings, resourceID); err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}

	var average float64
	const readAverage = `SELECT average_rating FROM resources WHERE id = $1`
	if err := tx.GetContext(ctx, &average, readAverage, resourceID); err != nil {
		return nil, fmt.Errorf("read average rating: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rating tx: %w", err)
	}

	return &models.RatingSummary{Ratings: ratings, AverageRating: average}, nil
}
