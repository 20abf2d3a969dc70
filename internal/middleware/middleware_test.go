package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-admin-console/internal/model"
	"go-admin-console/pkg/jwt"
)

type stubAuth struct {
	admin *model.Admin
}

func (s stubAuth) Authenticate(ctx context.Context, token string) (*model.Admin, *jwt.Claims, error) {
	if token != "good" {
		return nil, nil, errors.New("bad token")
	}
	return s.admin, &jwt.Claims{AdminID: s.admin.ID, SessionID: "sid-1"}, nil
}

func newApp(admin *model.Admin, perm model.Permission) *fiber.App {
	app := fiber.New()
	app.Get("/logs", RequireAuth(stubAuth{admin: admin}), RequirePermission(perm), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(LocalSessionID).(string))
	})
	return app
}

func TestRequireAuth(t *testing.T) {
	admin := &model.Admin{Role: &model.Role{Permissions: pq.StringArray{"logs.read"}}}
	admin.ID = uuid.New()
	app := newApp(admin, model.PermLogsRead)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", fiber.StatusUnauthorized},
		{"malformed", "Token good", fiber.StatusUnauthorized},
		{"invalid", "Bearer bad", fiber.StatusUnauthorized},
		{"valid", "Bearer good", fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/logs", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestRequirePermissionForbidden(t *testing.T) {
	admin := &model.Admin{Role: &model.Role{Permissions: pq.StringArray{"logs.read"}}}
	admin.ID = uuid.New()
	app := newApp(admin, model.PermSecurityRead)

	req := httptest.NewRequest("GET", "/logs", nil)
	req.Header.Set("Authorization", "Bearer good")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestIPLimiter(t *testing.T) {
	limiter := NewIPLimiter(1, 2)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"), "buckets are per address")

	app := fiber.New()
	app.Post("/login", NewIPLimiter(1, 1).Handler(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, err = app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}
