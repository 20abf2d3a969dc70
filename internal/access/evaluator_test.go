package access

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-admin-console/internal/model"
)

func adminWith(rolePerms, custom []string) *model.Admin {
	return &model.Admin{
		Role:              &model.Role{Name: "r", Permissions: pq.StringArray(rolePerms)},
		CustomPermissions: pq.StringArray(custom),
	}
}

func TestEffectivePermissionsUnion(t *testing.T) {
	admin := adminWith([]string{"logs.read"}, []string{"users.read"})

	got := EffectivePermissions(admin)

	assert.Equal(t, []string{"logs.read", "users.read"}, got.Strings())
	assert.True(t, Authorize(admin, "users.read"))
	assert.True(t, Authorize(admin, "logs.read"))
	assert.False(t, Authorize(admin, "users.write"))
}

func TestEffectivePermissionsCollapsesDuplicates(t *testing.T) {
	a := adminWith([]string{"roles.read", "admins.read", "roles.read"}, []string{"admins.read", "roles.read"})
	b := adminWith([]string{"admins.read"}, []string{"roles.read", "roles.read"})

	require.Len(t, EffectivePermissions(a), 2)
	assert.Equal(t, EffectivePermissions(a).Strings(), EffectivePermissions(b).Strings())
	// idempotent
	assert.Equal(t, EffectivePermissions(a).Strings(), EffectivePermissions(a).Strings())
}

func TestWildcardGrantsEverything(t *testing.T) {
	cases := map[string]*model.Admin{
		"role":   adminWith([]string{"logs.read", "*"}, nil),
		"custom": adminWith([]string{"logs.read"}, []string{"*"}),
	}
	for name, admin := range cases {
		t.Run(name, func(t *testing.T) {
			set := EffectivePermissions(admin)
			assert.True(t, set.IsUniversal())
			assert.Equal(t, []string{"*"}, set.Strings())
			for _, p := range []model.Permission{"admins.delete", "security.update", "anything.at_all"} {
				assert.True(t, Authorize(admin, p))
			}
		})
	}
}

func TestEffectivePermissionsWithoutRole(t *testing.T) {
	admin := &model.Admin{CustomPermissions: pq.StringArray{"users.read"}}
	assert.True(t, Authorize(admin, "users.read"))
	assert.False(t, Authorize(admin, "logs.read"))
	assert.False(t, Authorize(nil, "logs.read"))
}

func TestAuthorizeAny(t *testing.T) {
	admin := adminWith([]string{"logs.read"}, nil)
	assert.True(t, AuthorizeAny(admin, "users.read", "logs.read"))
	assert.False(t, AuthorizeAny(admin, "users.read", "roles.read"))
}
