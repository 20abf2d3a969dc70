package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Login failure reasons recorded on LoginAttempt.FailureReason
const (
	FailureIPBlocked           = "ip_blocked"
	FailureIPNotAllowed        = "ip_not_allowed"
	FailureInvalidCredentials  = "invalid_credentials"
	FailureUnknownAccount      = "unknown_account"
	FailureAccountInactive     = "account_inactive"
	FailureAccountLocked       = "account_locked"
	FailureInvalidSecondFactor = "invalid_second_factor"
)

// LockoutFailureReasons are the failures counted toward a lockout. Denials
// issued while already locked do not extend it.
var LockoutFailureReasons = []string{FailureInvalidCredentials, FailureInvalidSecondFactor}

// LoginAttempt is an append-only record of one login evaluation
type LoginAttempt struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;" json:"id"`
	AdminID       *uuid.UUID `gorm:"type:uuid;index" json:"admin_id,omitempty"`
	Identifier    string     `gorm:"type:varchar(255)" json:"identifier"`
	Timestamp     time.Time  `gorm:"not null;index" json:"timestamp"`
	Success       bool       `gorm:"not null;index" json:"success"`
	IPAddress     string     `gorm:"type:varchar(64)" json:"ip_address"`
	UserAgent     string     `gorm:"type:text" json:"user_agent"`
	FailureReason string     `gorm:"type:varchar(50)" json:"failure_reason,omitempty"`
	Suspicious    bool       `gorm:"not null;default:false;index" json:"suspicious"`
}

func (a *LoginAttempt) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

// CountsTowardLockout reports whether the attempt is a credential failure.
func (a *LoginAttempt) CountsTowardLockout() bool {
	if a.Success {
		return false
	}
	for _, reason := range LockoutFailureReasons {
		if a.FailureReason == reason {
			return true
		}
	}
	return false
}
