// Package access computes effective permission sets and authorization decisions.
// Everything here is pure: no storage, no logging.
package access

import (
	"sort"

	"go-admin-console/internal/model"
)

// PermissionSet is a set of permission tokens. A set holding "*" is universal.
type PermissionSet map[model.Permission]struct{}

// NewPermissionSet builds a set from raw tokens; "*" absorbs the rest.
func NewPermissionSet(tokens ...string) PermissionSet {
	set := make(PermissionSet, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if model.Permission(t) == model.PermissionAll {
			return PermissionSet{model.PermissionAll: {}}
		}
		set[model.Permission(t)] = struct{}{}
	}
	return set
}

// IsUniversal reports whether the set grants every permission.
func (s PermissionSet) IsUniversal() bool {
	_, ok := s[model.PermissionAll]
	return ok
}

// Has reports whether the set grants p.
func (s PermissionSet) Has(p model.Permission) bool {
	if s.IsUniversal() {
		return true
	}
	_, ok := s[p]
	return ok
}

// Strings returns the tokens sorted, for responses and token claims.
func (s PermissionSet) Strings() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}

// EffectivePermissions returns role.permissions ∪ customPermissions.
// The admin's Role must be loaded for role permissions to count.
func EffectivePermissions(admin *model.Admin) PermissionSet {
	if admin == nil {
		return PermissionSet{}
	}
	tokens := make([]string, 0, len(admin.CustomPermissions)+8)
	if admin.Role != nil {
		tokens = append(tokens, admin.Role.Permissions...)
	}
	tokens = append(tokens, admin.CustomPermissions...)
	return NewPermissionSet(tokens...)
}

// Authorize reports whether admin may perform an action guarded by required.
func Authorize(admin *model.Admin, required model.Permission) bool {
	return EffectivePermissions(admin).Has(required)
}

// AuthorizeAny reports whether admin holds at least one of required.
func AuthorizeAny(admin *model.Admin, required ...model.Permission) bool {
	granted := EffectivePermissions(admin)
	for _, p := range required {
		if granted.Has(p) {
			return true
		}
	}
	return false
}
