package model

import "sort"

// Permission is a catalog token namespaced by module, e.g. "admins.suspend".
type Permission string

// PermissionAll grants every permission in the catalog.
const PermissionAll Permission = "*"

const (
	PermAdminsRead          Permission = "admins.read"
	PermAdminsCreate        Permission = "admins.create"
	PermAdminsUpdate        Permission = "admins.update"
	PermAdminsDelete        Permission = "admins.delete"
	PermAdminsSuspend       Permission = "admins.suspend"
	PermAdminsActivate      Permission = "admins.activate"
	PermAdminsDeactivate    Permission = "admins.deactivate"
	PermAdminsResetPassword Permission = "admins.reset_password"

	PermRolesRead   Permission = "roles.read"
	PermRolesCreate Permission = "roles.create"
	PermRolesUpdate Permission = "roles.update"
	PermRolesDelete Permission = "roles.delete"

	PermSecurityRead   Permission = "security.read"
	PermSecurityUpdate Permission = "security.update"

	PermLogsRead         Permission = "logs.read"
	PermLoginHistoryRead Permission = "logs.login_history"

	PermUsersRead   Permission = "users.read"
	PermUsersCreate Permission = "users.create"
	PermUsersUpdate Permission = "users.update"
	PermUsersDelete Permission = "users.delete"

	PermDashboardView Permission = "dashboard.view"
)

// PermissionEntry is a single catalog item as shown in the role editor.
type PermissionEntry struct {
	Value Permission `json:"value"`
	Label string     `json:"label"`
}

// PermissionModule groups the permissions of one console module.
type PermissionModule struct {
	Module      string            `json:"module"`
	Permissions []PermissionEntry `json:"permissions"`
}

// permissionCatalog is the source of truth for every assignable permission.
var permissionCatalog = []PermissionModule{
	{Module: "admins", Permissions: []PermissionEntry{
		{PermAdminsRead, "View Admins"},
		{PermAdminsCreate, "Create Admin"},
		{PermAdminsUpdate, "Update Admin"},
		{PermAdminsDelete, "Delete Admin"},
		{PermAdminsSuspend, "Suspend Admin"},
		{PermAdminsActivate, "Activate Admin"},
		{PermAdminsDeactivate, "Deactivate Admin"},
		{PermAdminsResetPassword, "Reset Admin Password"},
	}},
	{Module: "roles", Permissions: []PermissionEntry{
		{PermRolesRead, "View Roles"},
		{PermRolesCreate, "Create Role"},
		{PermRolesUpdate, "Update Role"},
		{PermRolesDelete, "Delete Role"},
	}},
	{Module: "security", Permissions: []PermissionEntry{
		{PermSecurityRead, "View Security Policy"},
		{PermSecurityUpdate, "Update Security Policy"},
	}},
	{Module: "logs", Permissions: []PermissionEntry{
		{PermLogsRead, "View Activity Logs"},
		{PermLoginHistoryRead, "View Login History"},
	}},
	{Module: "users", Permissions: []PermissionEntry{
		{PermUsersRead, "View Users"},
		{PermUsersCreate, "Create User"},
		{PermUsersUpdate, "Update User"},
		{PermUsersDelete, "Delete User"},
	}},
	{Module: "dashboard", Permissions: []PermissionEntry{
		{PermDashboardView, "View Dashboard"},
	}},
}

var validPermissions = func() map[Permission]struct{} {
	set := map[Permission]struct{}{PermissionAll: {}}
	for _, m := range permissionCatalog {
		for _, p := range m.Permissions {
			set[p.Value] = struct{}{}
		}
	}
	return set
}()

// ListPermissionModules returns a copy of the catalog in display order.
func ListPermissionModules() []PermissionModule {
	out := make([]PermissionModule, len(permissionCatalog))
	for i, m := range permissionCatalog {
		perms := make([]PermissionEntry, len(m.Permissions))
		copy(perms, m.Permissions)
		out[i] = PermissionModule{Module: m.Module, Permissions: perms}
	}
	return out
}

// IsValidPermission reports whether token is "*" or a catalog permission.
func IsValidPermission(token string) bool {
	_, ok := validPermissions[Permission(token)]
	return ok
}

// InvalidPermissions returns the tokens that fail catalog validation, in input order.
func InvalidPermissions(tokens []string) []string {
	var invalid []string
	for _, t := range tokens {
		if !IsValidPermission(t) {
			invalid = append(invalid, t)
		}
	}
	return invalid
}

// NormalizePermissions de-duplicates tokens and sorts them; "*" absorbs everything else.
func NormalizePermissions(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if Permission(t) == PermissionAll {
			return []string{string(PermissionAll)}
		}
		seen[t] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
