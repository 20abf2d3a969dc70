package model

import (
	"time"

	"github.com/lib/pq"
)

// PasswordPolicy controls password strength and rotation.
type PasswordPolicy struct {
	MinLength           int  `gorm:"not null;default:8" json:"min_length" validate:"gte=1,lte=128"`
	PasswordExpiryDays  int  `gorm:"not null;default:0" json:"password_expiry_days" validate:"gte=0,lte=3650"`
	RequireUppercase    bool `gorm:"not null;default:false" json:"require_uppercase"`
	RequireLowercase    bool `gorm:"not null;default:false" json:"require_lowercase"`
	RequireNumbers      bool `gorm:"not null;default:false" json:"require_numbers"`
	RequireSpecialChars bool `gorm:"not null;default:false" json:"require_special_chars"`
}

// LoginSecurity controls lockout, session length and the second factor.
type LoginSecurity struct {
	MaxLoginAttempts       int  `gorm:"not null;default:5" json:"max_login_attempts" validate:"gte=1,lte=100"`
	LockoutDurationMinutes int  `gorm:"not null;default:15" json:"lockout_duration_minutes" validate:"gte=1,lte=10080"`
	SessionTimeoutMinutes  int  `gorm:"not null;default:60" json:"session_timeout_minutes" validate:"gte=1,lte=43200"`
	Require2FA             bool `gorm:"column:require_2fa;not null;default:false" json:"require_2fa"`
}

// LockoutDuration returns the lockout window as a duration.
func (l LoginSecurity) LockoutDuration() time.Duration {
	return time.Duration(l.LockoutDurationMinutes) * time.Minute
}

// SessionTimeout returns the session length as a duration.
func (l LoginSecurity) SessionTimeout() time.Duration {
	return time.Duration(l.SessionTimeoutMinutes) * time.Minute
}

// IPRestrictions are exact-match allow/deny lists applied at login.
type IPRestrictions struct {
	Enabled    bool           `gorm:"not null;default:false" json:"enabled"`
	AllowedIPs pq.StringArray `gorm:"type:text[]" json:"allowed_ips" validate:"dive,ip"`
	BlockedIPs pq.StringArray `gorm:"type:text[]" json:"blocked_ips" validate:"dive,ip"`
}

// SecurityPolicy is the singleton, versioned policy document.
type SecurityPolicy struct {
	ID             uint           `gorm:"primaryKey" json:"-"`
	Version        int            `gorm:"not null;default:1" json:"version"`
	PasswordPolicy PasswordPolicy `gorm:"embedded;embeddedPrefix:password_" json:"password_policy" validate:"required"`
	LoginSecurity  LoginSecurity  `gorm:"embedded;embeddedPrefix:login_" json:"login_security" validate:"required"`
	IPRestrictions IPRestrictions `gorm:"embedded;embeddedPrefix:ip_" json:"ip_restrictions"`
	UpdatedAt      time.Time      `json:"updated_at"`
	UpdatedBy      string         `json:"updated_by"`
}

// TableName pins the singleton table name
func (SecurityPolicy) TableName() string {
	return "security_policies"
}

// SecurityPolicyID is the primary key of the single policy row.
const SecurityPolicyID uint = 1

// DefaultSecurityPolicy is seeded when no policy document exists.
func DefaultSecurityPolicy() SecurityPolicy {
	return SecurityPolicy{
		ID:      SecurityPolicyID,
		Version: 1,
		PasswordPolicy: PasswordPolicy{
			MinLength:        8,
			RequireUppercase: true,
			RequireLowercase: true,
			RequireNumbers:   true,
		},
		LoginSecurity: LoginSecurity{
			MaxLoginAttempts:       5,
			LockoutDurationMinutes: 15,
			SessionTimeoutMinutes:  60,
		},
		IPRestrictions: IPRestrictions{
			AllowedIPs: pq.StringArray{},
			BlockedIPs: pq.StringArray{},
		},
		UpdatedBy: "system",
	}
}
