package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActionType enumerates the administrative actions written to the activity log
type ActionType string

const (
	ActionAdminCreated     ActionType = "ADMIN_CREATED"
	ActionAdminUpdated     ActionType = "ADMIN_UPDATED"
	ActionAdminDeleted     ActionType = "ADMIN_DELETED"
	ActionAdminSuspended   ActionType = "ADMIN_SUSPENDED"
	ActionAdminActivated   ActionType = "ADMIN_ACTIVATED"
	ActionAdminDeactivated ActionType = "ADMIN_DEACTIVATED"
	ActionPasswordReset    ActionType = "PASSWORD_RESET"
	ActionPasswordChanged  ActionType = "PASSWORD_CHANGED"
	ActionRoleCreated      ActionType = "ROLE_CREATED"
	ActionRoleUpdated      ActionType = "ROLE_UPDATED"
	ActionRoleDeleted      ActionType = "ROLE_DELETED"
	ActionPolicyUpdated    ActionType = "SECURITY_POLICY_UPDATED"
	ActionTwoFactorEnabled ActionType = "TWO_FACTOR_ENABLED"
)

// IsValid reports whether t is a known action type.
func (t ActionType) IsValid() bool {
	switch t {
	case ActionAdminCreated, ActionAdminUpdated, ActionAdminDeleted, ActionAdminSuspended,
		ActionAdminActivated, ActionAdminDeactivated, ActionPasswordReset, ActionPasswordChanged,
		ActionRoleCreated, ActionRoleUpdated, ActionRoleDeleted, ActionPolicyUpdated, ActionTwoFactorEnabled:
		return true
	}
	return false
}

// ActivityLog is an immutable record of a completed administrative mutation
type ActivityLog struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key;" json:"id"`
	Timestamp        time.Time  `gorm:"not null;index" json:"timestamp"`
	ActionType       ActionType `gorm:"type:varchar(40);not null;index" json:"action_type"`
	PerformedBy      *uuid.UUID `gorm:"type:uuid;index" json:"performed_by,omitempty"` // nil for system actions
	PerformedByEmail string     `gorm:"type:varchar(255)" json:"performed_by_email"`
	TargetID         string     `gorm:"type:varchar(64);index" json:"target_id,omitempty"`
	Description      string     `gorm:"type:text" json:"description"`
	IPAddress        string     `gorm:"type:varchar(64)" json:"ip_address"`
}

func (l *ActivityLog) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return
}
