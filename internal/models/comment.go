package models

import "time"

// Comment is an immutable discussion message attached to a resource.
type Comment struct {
	ID         string    `db:"id" json:"id"`
	ResourceID string    `db:"resource_id" json:"resource_id"`
	AuthorID   string    `db:"author_id" json:"author_id"`
	Message    string    `db:"message" json:"message"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CommentView joins the author's display name for API responses.
type CommentView struct {
	Comment
	AuthorName string `db:"author_name" json:"author_name"`
}
