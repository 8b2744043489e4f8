package auth

import "time"

// Credentials represents a registered account on the auth service
type Credentials struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LoginRequest carries the credentials exchanged for a token pair
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Lang selects the language of the emails sent by the auth service
type Lang string

const (
	LangEn Lang = "en"
	LangFr Lang = "fr"
)

// ShortCodeUsage names the action a short code authorizes
type ShortCodeUsage string

const (
	UsageRegister      ShortCodeUsage = "register"
	UsagePasswordReset ShortCodeUsage = "password-reset"
	UsageEmailUpdate   ShortCodeUsage = "email-update"
)

// ShortCode is a one-time, time-limited credential delivered out of band
type ShortCode struct {
	Target    string         `json:"target"` // Email for registration, user ID otherwise
	Usage     ShortCodeUsage `json:"usage"`
	CodeHash  string         `json:"-"`
	Data      string         `json:"data,omitempty"` // Pending new email for email updates
	ExpiresAt time.Time      `json:"expiresAt"`
	CreatedAt time.Time      `json:"createdAt"`
}

// IsExpired checks if the short code can no longer be consumed
func (s *ShortCode) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
