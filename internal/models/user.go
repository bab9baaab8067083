package models

import "time"

// UserRole represents the available roles for authenticated accounts.
// Attendees never authenticate; they act through single-use access codes.
type UserRole string

const (
	RoleOrganizer UserRole = "ORGANIZER"
	RoleEvaluator UserRole = "EVALUATOR"
)

// User represents an authenticated account stored in the users table.
// Organizers carry the external provider identity used to query their events.
type User struct {
	ID            string     `db:"id" json:"id"`
	Email         string     `db:"email" json:"email"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	FullName      string     `db:"full_name" json:"full_name"`
	Role          UserRole   `db:"role" json:"role"`
	Active        bool       `db:"active" json:"active"`
	EBUserID      string     `db:"eb_user_id" json:"-"`
	EBAccessToken string     `db:"eb_access_token" json:"-"`
	LastLogin     *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
