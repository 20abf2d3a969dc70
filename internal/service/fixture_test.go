package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"go-admin-console/internal/model"
	"go-admin-console/internal/session"
	"go-admin-console/pkg/jwt"
)

const rootPassword = "Sup3rSecret"

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	ctx      context.Context
	store    *memStore
	sessions *session.Store
	redis    *miniredis.Miniredis
	clock    *testClock
	deps     Deps

	superRole *model.Role
	root      *model.Admin

	roles  RoleService
	admins AdminService
	policy PolicyService
	auth   AuthService
	audit  AuditService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newMemStore()
	require.NoError(t, store.Roles().SeedDefaults(ctx))
	superRole, err := store.Roles().FindByName(ctx, model.RoleSuperAdmin)
	require.NoError(t, err)

	clock := &testClock{t: time.Now().UTC().Truncate(time.Second)}
	sessions := session.NewStore(client, "test")
	deps := Deps{Store: store, Sessions: sessions, Now: clock.Now}

	root := &model.Admin{
		FullName:    "Root",
		Email:       "root@example.com",
		RoleID:      &superRole.ID,
		Status:      model.StatusActive,
		IsProtected: true,
	}
	require.NoError(t, root.SetPassword(rootPassword, clock.Now()))
	require.NoError(t, store.Admins().Create(ctx, root))
	root, err = store.Admins().FindByID(ctx, root.ID)
	require.NoError(t, err)

	return &fixture{
		ctx:       ctx,
		store:     store,
		sessions:  sessions,
		redis:     mr,
		clock:     clock,
		deps:      deps,
		superRole: superRole,
		root:      root,
		roles:     NewRoleService(deps),
		admins:    NewAdminService(deps),
		policy:    NewPolicyService(deps),
		auth:      NewAuthService(deps, jwt.NewManager("test-secret-0123456789", "test"), AuthOptions{TOTPIssuer: "Test"}),
		audit:     NewAuditService(deps),
	}
}

func (f *fixture) rootActor() Actor {
	return Actor{Admin: f.root, IPAddress: "127.0.0.1"}
}

// actorFor reloads admin so its role is attached.
func (f *fixture) actorFor(t *testing.T, id uuid.UUID) Actor {
	t.Helper()
	admin, err := f.store.Admins().FindByID(f.ctx, id)
	require.NoError(t, err)
	return Actor{Admin: admin, IPAddress: "10.1.1.1"}
}

func (f *fixture) createRole(t *testing.T, name string, perms ...string) *model.Role {
	t.Helper()
	role, err := f.roles.CreateRole(f.ctx, f.rootActor(), &CreateRoleRequest{Name: name, Permissions: perms})
	require.NoError(t, err)
	return role
}

func (f *fixture) createAdmin(t *testing.T, email string, roleID uuid.UUID, custom ...string) *model.Admin {
	t.Helper()
	admin, err := f.admins.CreateAdmin(f.ctx, f.rootActor(), &CreateAdminRequest{
		FullName:          "Test Admin",
		Email:             email,
		Password:          "Passw0rd!",
		RoleID:            roleID,
		CustomPermissions: custom,
	})
	require.NoError(t, err)
	return admin
}

func (f *fixture) setPolicy(t *testing.T, mutate func(p *model.SecurityPolicy)) {
	t.Helper()
	current, err := f.store.Policies().Get(f.ctx)
	require.NoError(t, err)
	mutate(current)
	require.NoError(t, f.store.Policies().Save(f.ctx, current, current.Version))
}
