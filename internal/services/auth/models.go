package auth

import (
	"time"

	"note-vault/internal/store"
)

const (
	fieldEmail        = "email"
	fieldPasswordHash = "password_hash"
	fieldCreatedAt    = "created_at"
	fieldUpdatedAt    = "updated_at"
)

// User represents a user in the system
type User struct {
	ID           string    `json:"id" example:"683cdb8aa96ad71e8e075bd1"`
	Email        string    `json:"email" example:"test@example.com"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at" example:"2025-06-01T23:00:26.005Z"`
	UpdatedAt    time.Time `json:"updated_at" example:"2025-06-01T23:00:26.005Z"`
}

func userFromDocument(d store.Document) *User {
	u := &User{
		ID:           d.ID,
		Email:        store.String(d.Fields[fieldEmail]),
		PasswordHash: store.String(d.Fields[fieldPasswordHash]),
	}
	if t := store.ParseTime(d.Fields[fieldCreatedAt]); t != nil {
		u.CreatedAt = *t
	}
	if t := store.ParseTime(d.Fields[fieldUpdatedAt]); t != nil {
		u.UpdatedAt = *t
	}
	return u
}

// SignUpRequest represents a user registration request
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=254" example:"test@example.com"`
	Password string `json:"password" validate:"required,password,max=72" example:"Password123"`
}

// SignInRequest represents a user login request
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email" example:"test@example.com"`
	Password string `json:"password" validate:"required" example:"Password123"`
}

// AuthResponse represents the response for successful authentication
type AuthResponse struct {
	User      *User     `json:"user"`
	Token     string    `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt time.Time `json:"expires_at" example:"2025-06-02T00:00:26Z"`
}
