// Package auth handles user accounts, password security, and session
// management for Waypost. Registration, login, logout, and session
// validation use random tokens stored in Redis behind an HttpOnly cookie.
package auth

import (
	"time"
)

// User represents a registered Waypost user. This is the domain model used
// throughout the application; campgrounds and reviews reference it by ID as
// their author.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// --- Request DTOs (bound from HTTP form submissions) ---

// RegisterRequest holds the data submitted by the registration form.
type RegisterRequest struct {
	Email       string `form:"email"`
	DisplayName string `form:"display_name"`
	Password    string `form:"password"`
	Confirm     string `form:"confirm"`
}

// LoginRequest holds the data submitted by the login form.
type LoginRequest struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

// --- Service input DTOs (passed from handler to service) ---

// RegisterInput is the validated input for creating a new user.
type RegisterInput struct {
	Email       string
	DisplayName string
	Password    string
}

// LoginInput is the validated input for authenticating a user.
type LoginInput struct {
	Email    string
	Password string
}

// --- Session ---

// Session represents an authenticated user session stored in Redis.
// The session token is the key, and this struct is the value (JSON-encoded).
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}
