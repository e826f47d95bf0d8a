// Package models defines the core data structures of the sneaker catalog:
// sneakers, categories, users, comments and browser sessions.
package models

import "time"

// Role identifies what an authenticated user is allowed to do.
type Role string

const (
	// RoleAdmin can manage the catalog, users and comments.
	RoleAdmin Role = "admin"
	// RoleUser is a regular registered visitor.
	RoleUser Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents a registered account.
type User struct {
	// ID is the unique identifier for the user.
	ID int64
	// Username is the login name chosen by the user.
	Username string
	// Email is the unique contact address.
	Email string
	// PasswordHash is the bcrypt hash of the password. It is never rendered.
	PasswordHash []byte
	// Role decides access to the back office.
	Role Role
	// CreatedAt is the registration time.
	CreatedAt time.Time
	// CommentCount is filled by admin listings only.
	CommentCount int
}

// Category groups sneakers.
type Category struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	CreatedAt   time.Time
	// SneakerCount is filled by admin listings only.
	SneakerCount int
}

// Sneaker is a single catalog entry.
type Sneaker struct {
	ID          int64
	Name        string
	Brand       string
	Colorway    string
	ReleaseDate *time.Time
	RetailPrice *float64
	Description string
	// ImagePath is relative to the public directory, e.g. "uploads/images/sneaker_x.jpg".
	ImagePath    string
	CategoryID   int64
	CategoryName string
	SKU          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Comment is a visitor note attached to a sneaker.
type Comment struct {
	ID        int64
	SneakerID int64
	// UserID is nil for anonymous commenters.
	UserID     *int64
	AuthorName string
	Content    string
	// OriginalContent keeps the text as it was before the first disemvowel.
	OriginalContent string
	IsModerated     bool
	CreatedAt       time.Time
	// SneakerName and Username are filled by admin listings only.
	SneakerName string
	Username    string
}

// DashboardStats aggregates the counters shown on the admin dashboard.
type DashboardStats struct {
	Sneakers        int
	Categories      int
	Users           int
	Comments        int
	PendingComments int
}
