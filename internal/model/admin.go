package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

// Admin represents an operator account of the console
type Admin struct {
	BaseModel
	FullName          string         `gorm:"type:varchar(255);not null" json:"full_name"`
	Email             string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"` // lower-cased, doubles as login identifier
	Password          string         `gorm:"type:varchar(255);not null" json:"-"`
	Phone             string         `gorm:"type:varchar(30)" json:"phone,omitempty"`
	Department        string         `gorm:"type:varchar(100)" json:"department,omitempty"`
	RoleID            *uuid.UUID     `gorm:"type:uuid;index" json:"role_id"`
	Role              *Role          `gorm:"foreignKey:RoleID;constraint:OnDelete:RESTRICT" json:"role,omitempty"`
	CustomPermissions pq.StringArray `gorm:"type:text[]" json:"custom_permissions"`
	Status            AccountStatus  `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	IsProtected       bool           `gorm:"default:false" json:"is_protected"`
	LastLoginAt       *time.Time     `json:"last_login_at,omitempty"`
	LockedUntil       *time.Time     `json:"locked_until,omitempty"`
	PasswordChangedAt *time.Time     `json:"password_changed_at,omitempty"`
	TOTPSecret        string         `gorm:"type:varchar(64)" json:"-"`
	TOTPEnabled       bool           `gorm:"default:false" json:"totp_enabled"`
}

// NormalizeEmail lower-cases and trims a login identifier.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPassword hashes and sets the admin's password
func (a *Admin) SetPassword(password string, now time.Time) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.Password = string(hashedPassword)
	a.PasswordChangedAt = &now
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (a *Admin) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password))
	return err == nil
}

// AdminResponse is used for API responses (without sensitive data)
type AdminResponse struct {
	ID                uuid.UUID     `json:"id"`
	FullName          string        `json:"full_name"`
	Email             string        `json:"email"`
	Phone             string        `json:"phone,omitempty"`
	Department        string        `json:"department,omitempty"`
	RoleID            *uuid.UUID    `json:"role_id,omitempty"`
	Role              *Role         `json:"role,omitempty"`
	CustomPermissions []string      `json:"custom_permissions"`
	Status            AccountStatus `json:"status"`
	IsProtected       bool          `json:"is_protected"`
	TOTPEnabled       bool          `json:"totp_enabled"`
	LastLoginAt       *time.Time    `json:"last_login_at,omitempty"`
	LockedUntil       *time.Time    `json:"locked_until,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

// ToResponse converts Admin to AdminResponse
func (a *Admin) ToResponse() AdminResponse {
	custom := []string(a.CustomPermissions)
	if custom == nil {
		custom = []string{}
	}
	return AdminResponse{
		ID:                a.ID,
		FullName:          a.FullName,
		Email:             a.Email,
		Phone:             a.Phone,
		Department:        a.Department,
		RoleID:            a.RoleID,
		Role:              a.Role,
		CustomPermissions: custom,
		Status:            a.Status,
		IsProtected:       a.IsProtected,
		TOTPEnabled:       a.TOTPEnabled,
		LastLoginAt:       a.LastLoginAt,
		LockedUntil:       a.LockedUntil,
		CreatedAt:         a.CreatedAt,
	}
}
