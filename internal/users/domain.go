package users

import "time"

// User represents a staff account.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleID       int64     `json:"role_id"`
	RoleName     string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Role is a lookup row for account roles.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreateRequest is the new-account payload.
type CreateRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	RoleID   int64  `json:"role_id" validate:"required,gt=0"`
}

// UpdateRequest edits an account. Password is optional; empty keeps the
// current hash.
type UpdateRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	RoleID   int64  `json:"role_id" validate:"required,gt=0"`
}
