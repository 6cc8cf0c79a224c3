package model

import "time"

// Role values for station accounts.
const (
	RoleAdmin = "admin"
	RoleDJ    = "dj"
)

// User represents a DJ or admin account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // not exposed in API responses
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the account carries admin rights.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
