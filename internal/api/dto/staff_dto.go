package dto

import (
	"time"

	"github.com/amv-gms/grievance-service/internal/domain"
)

// StaffLoginRequest payload.
type StaffLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PasswordResetConfirmRequest payload for confirming reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordResetResponse is returned to the admin who issued the token.
type PasswordResetResponse struct {
	StaffID   string    `json:"staff_id"`
	Token     string    `json:"reset_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// StaffCreateRequest payload.
type StaffCreateRequest struct {
	Name     string           `json:"name"`
	Username string           `json:"username"`
	Password string           `json:"password"`
	Role     domain.StaffRole `json:"role"`
}

// StaffUpdateRequest payload.
type StaffUpdateRequest struct {
	Name   string           `json:"name"`
	Role   domain.StaffRole `json:"role"`
	Active bool             `json:"active"`
}

// StaffResponse describes a staff account without credentials.
type StaffResponse struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Username string           `json:"username"`
	Role     domain.StaffRole `json:"role"`
	Active   bool             `json:"active"`
}
