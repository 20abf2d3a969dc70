package model

import (
	"strings"

	"github.com/lib/pq"
)

// Role is a named permission bundle referenced by admin accounts
type Role struct {
	BaseModel
	Name         string         `gorm:"type:varchar(100);not null" json:"name"`
	NameKey      string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"-"` // lower(name), enforces case-insensitive uniqueness
	Description  string         `gorm:"type:text" json:"description"`
	Permissions  pq.StringArray `gorm:"type:text[]" json:"permissions"`
	IsSystemRole bool           `gorm:"default:false" json:"is_system_role"`
}

// Role names as constants
const (
	RoleSuperAdmin = "Super Admin"
)

// RoleNameKey is the normalized form used for uniqueness checks.
func RoleNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DefaultRoles defines the system roles seeded on startup
var DefaultRoles = []Role{
	{
		Name:         RoleSuperAdmin,
		Description:  "Full system access with all permissions",
		Permissions:  pq.StringArray{string(PermissionAll)},
		IsSystemRole: true,
	},
}
