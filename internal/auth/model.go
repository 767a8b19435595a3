// Package auth handles user accounts and session management for filedepot:
// registration, token-based login/logout against Redis, and the gate every
// protected route passes through.
package auth

import "time"

// User represents a registered account. The password hash never leaves the
// service layer.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON responses.
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest holds the JSON body of POST /users.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
