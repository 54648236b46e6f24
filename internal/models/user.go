package models

import (
	"time"

	"github.com/google/uuid"
)

// UserDB represents a user record in the database
type UserDB struct {
	UserID       uuid.UUID `json:"id" db:"user_id"`            // Primary key
	Email        string    `json:"email" db:"email"`           // Unique email, stored lowercased
	PasswordHash string    `json:"-" db:"password_hash"`       // Bcrypt hash, never serialized
	FirstName    *string   `json:"first_name" db:"first_name"` // Optional first name
	LastName     *string   `json:"last_name" db:"last_name"`   // Optional last name
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // Creation timestamp
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // Last update timestamp
}

// PublicUser is the representation of a user returned to API callers.
// It never carries the password hash.
type PublicUser struct {
	UserID    uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Public returns the caller-facing view of the user.
func (u *UserDB) Public() *PublicUser {
	return &PublicUser{
		UserID:    u.UserID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
