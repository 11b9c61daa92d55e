package models

import "time"

// Resource represents an uploaded study document subject to moderation.
// Approved gates public visibility; AverageRating is derived from the
// resource_ratings rows and recomputed on every rating mutation.
type Resource struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Subject       string    `db:"subject" json:"subject"`
	Semester      string    `db:"semester" json:"semester"`
	FileURL       string    `db:"file_url" json:"file_url"`
	StorageKey    string    `db:"storage_key" json:"-"`
	UploaderID    string    `db:"uploader_id" json:"uploader_id"`
	Approved      bool      `db:"approved" json:"approved"`
	AverageRating float64   `db:"average_rating" json:"average_rating"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ResourceView is the read-side join of a resource with its uploader,
// returned by listings so the API shape stays decoupled from storage.
type ResourceView struct {
	Resource
	UploaderName  string `db:"uploader_name" json:"uploader_name"`
	UploaderEmail string `db:"uploader_email" json:"uploader_email"`
}

// Rating is a single (user, value) entry against a resource. Exactly one
// row exists per (resource, user) pair.
type Rating struct {
	ResourceID string    `db:"resource_id" json:"resource_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Value      int       `db:"rating" json:"rating"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// RatingSummary is returned after a rating mutation.
type RatingSummary struct {
	Ratings       []Rating `json:"ratings"`
	AverageRating float64  `json:"averageRating"`
}

// BookmarkToggle reports the action taken and the resulting set.
type BookmarkToggle struct {
	Message   string   `json:"message"`
	Bookmarks []string `json:"bookmarks"`
}
