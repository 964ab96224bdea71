package identity

import (
	"time"

	"github.com/clinicore/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// StartSessionRequest opens a session for an already-authenticated user.
// Credential verification happens upstream (SSO gateway); this service
// only resolves the acting role from the membership set and mints tokens.
type StartSessionRequest struct {
	UserID   uuid.UUID `json:"user_id" binding:"required"`
	ClinicID uuid.UUID `json:"clinic_id" binding:"required"`
	Name     string    `json:"name" binding:"max=200"`
}

// RefreshSessionRequest exchanges a refresh token for a new pair
type RefreshSessionRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// SessionResponse carries the issued token pair and the resolved context
type SessionResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresAt    time.Time     `json:"expires_at"`
	ClinicID     uuid.UUID     `json:"clinic_id"`
	UserID       uuid.UUID     `json:"user_id"`
	Role         identity.Role `json:"role"`
}
