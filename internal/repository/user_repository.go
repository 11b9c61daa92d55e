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

// UserRepository provides database access for users and their bookmarks.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, full_name, role, created_at, updated_at FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, full_name, role, created_at, updated_at FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, email, password_hash, full_name, role, created_at, updated_at) VALUES (:id, :email, :password_hash, :full_name, :role, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// List returns users based on filters with total count. The admin listing
// excludes the calling admin via ExcludeID.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	baseQuery := `FROM users WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.ExcludeID != "" {
		conditions = append(conditions, fmt.Sprintf("id <> $%d", len(args)+1))
		args = append(args, filter.ExcludeID)
	}
	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(email) LIKE $%d OR LOWER(full_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, email, password_hash, full_name, role, created_at, updated_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

// UpdateRole sets a user's capability tier.
func (r *UserRepository) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	const query = `UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, role, time.Now().UTC()); err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	return nil
}

// ToggleBookmark flips the (user, resource) bookmark membership inside a
// transaction and returns whether the bookmark was added together with the
// resulting bookmark set.
func (r *UserRepository) ToggleBookmark(ctx context.Context, userID, resourceID string) (bool, []string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, nil, fmt.Errorf("begin bookmark tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists bool
	const check = `SELECT EXISTS (SELECT 1 FROM bookmarks WHERE user_id = $1 AND resource_id = $2)`
	if err := tx.GetContext(ctx, &exists, check, userID, resourceID); err != nil {
		return false, nil, fmt.Errorf("check bookmark: %w", err)
	}

	added := !exists
	if exists {
		const remove = `DELETE FROM bookmarks WHERE user_id = $1 AND resource_id = $2`
		if _, err := tx.ExecContext(ctx, remove, userID, resourceID); err != nil {
			return false, nil, fmt.Errorf("remove bookmark: %w", err)
		}
	} else {
		const insert = `INSERT INTO bookmarks (user_id, resource_id, created_at) VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, insert, userID, resourceID, time.Now().UTC()); err != nil {
			return false, nil, fmt.Errorf("add bookmark: %w", err)
		}
	}

	bookmarks := make([]string, 0)
	const list = `SELECT resource_id FROM bookmarks WHERE user_id = $1 ORDER BY created_at ASC`
	if err := tx.SelectContext(ctx, &bookmarks, list, userID); err != nil {
		return false, nil, fmt.Errorf("list bookmarks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, nil, fmt.Errorf("commit bookmark tx: %w", err)
	}

	return added, bookmarks, nil
}

// ListBookmarkedResources returns the user's bookmarked resources joined
// with uploader details, in bookmark insertion order.
func (r *UserRepository) ListBookmarkedResources(ctx context.Context, userID string) ([]models.ResourceView, error) {
	query := `SELECT ` + resourceViewColumns + ` FROM bookmarks b JOIN resources r ON r.id = b.resource_id JOIN users u ON u.id = r.uploader_id WHERE b.user_id = $1 ORDER BY b.created_at ASC`
	views := make([]models.ResourceView, 0)
	if err := r.db.SelectContext(ctx, &views, query, userID); err != nil {
		return nil, fmt.Errorf("list bookmarked resources: %w", err)
	}
	return views, nil
}
