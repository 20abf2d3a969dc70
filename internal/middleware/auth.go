package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"go-admin-console/internal/access"
	"go-admin-console/internal/model"
	"go-admin-console/pkg/jwt"
)

// Locals keys set by RequireAuth
const (
	LocalAdmin     = "admin"
	LocalAdminID   = "admin_id"
	LocalSessionID = "session_id"
)

// Authenticator resolves a bearer token to its admin. Implemented by service.AuthService.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Admin, *jwt.Claims, error)
}

// RequireAuth validates the bearer token against the live session and sets
// the admin in context
func RequireAuth(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		admin, claims, err := auth.Authenticate(c.UserContext(), parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired session"})
		}

		c.Locals(LocalAdmin, admin)
		c.Locals(LocalAdminID, admin.ID.String())
		c.Locals(LocalSessionID, claims.SessionID)
		return c.Next()
	}
}

// CurrentAdmin returns the admin set by RequireAuth, or nil.
func CurrentAdmin(c *fiber.Ctx) *model.Admin {
	admin, _ := c.Locals(LocalAdmin).(*model.Admin)
	return admin
}

// RequirePermission checks the authenticated admin's effective permissions
func RequirePermission(required model.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin := CurrentAdmin(c)
		if admin == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		if !access.Authorize(admin, required) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: requires '" + string(required) + "' permission",
			})
		}
		return c.Next()
	}
}

// RequireAnyPermission passes when the admin holds at least one of required
func RequireAnyPermission(required ...model.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin := CurrentAdmin(c)
		if admin == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		if !access.AuthorizeAny(admin, required...) {
			names := make([]string, len(required))
			for i, p := range required {
				names[i] = string(p)
			}
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: requires one of " + strings.Join(names, ", ") + " permissions",
			})
		}
		return c.Next()
	}
}
