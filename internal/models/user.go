package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is a registered account. HashedPassword is a bcrypt hash and is
// never serialized.
type User struct {
	ID                int        `json:"id"`
	Email             string     `json:"email"`
	HashedPassword    string     `json:"-"`
	FullName          string     `json:"full_name"`
	PhoneNumber       string     `json:"phone_number"`
	IsActive          bool       `json:"is_active"`
	IsVerified        bool       `json:"is_verified"`
	IsAdmin           bool       `json:"is_admin"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	LastLogin         *time.Time `json:"last_login"`
	WhatsAppPhone     string     `json:"whatsapp_phone"`
	WhatsAppAccountID string     `json:"whatsapp_account_id"`
}

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the
// stored bcrypt hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)) == nil
}

// SystemSettings holds process-wide signup and feature toggles.
type SystemSettings struct {
	ID                         int    `json:"id"`
	SignupEnabled              bool   `json:"signup_enabled"`
	SignupRequiresApproval     bool   `json:"signup_requires_approval"`
	RequireEmailVerification   bool   `json:"require_email_verification"`
	MaxWhatsAppAccountsPerUser int    `json:"max_whatsapp_accounts_per_user"`
	EmailNotificationsEnabled  bool   `json:"email_notifications_enabled"`
	DefaultAIProvider          string `json:"default_ai_provider"`
	AIEnabled                  bool   `json:"ai_enabled"`
}

// DefaultSystemSettings returns the settings used when none are stored.
func DefaultSystemSettings() SystemSettings {
	return SystemSettings{
		ID:                         1,
		SignupEnabled:              true,
		SignupRequiresApproval:     false,
		RequireEmailVerification:   true,
		MaxWhatsAppAccountsPerUser: 1,
		EmailNotificationsEnabled:  true,
		DefaultAIProvider:          "OpenAI",
		AIEnabled:                  true,
	}
}
