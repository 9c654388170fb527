package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// Valid reports whether the role is one the service understands.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents an organization staff member stored in the users table.
type User struct {
	ID             string    `db:"id" json:"id"`
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Email          string    `db:"email" json:"email"`
	FullName       string    `db:"full_name" json:"full_name"`
	Role           UserRole  `db:"role" json:"role"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
