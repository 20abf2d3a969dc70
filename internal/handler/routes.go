package handler

import (
	"github.com/gofiber/fiber/v2"

	"go-admin-console/internal/middleware"
	"go-admin-console/internal/model"
	"go-admin-console/internal/ws"
)

// Handlers groups the HTTP handlers mounted by Register
type Handlers struct {
	Auth   *AuthHandler
	Admins *AdminHandler
	Roles  *RoleHandler
	Policy *PolicyHandler
	Logs   *LogHandler
}

// RouteConfig carries the middleware dependencies of the routes
type RouteConfig struct {
	Authenticator middleware.Authenticator
	LoginLimiter  *middleware.IPLimiter
	Hub           *ws.Hub
}

// Register mounts the console API. Reads are guarded here; mutations are
// authorized by the services so every audited change passes one check.
func Register(app *fiber.App, h Handlers, cfg RouteConfig) {
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	if cfg.LoginLimiter != nil {
		auth.Post("/login", cfg.LoginLimiter.Handler(), h.Auth.Login)
		auth.Post("/2fa/verify", cfg.LoginLimiter.Handler(), h.Auth.VerifySecondFactor)
	} else {
		auth.Post("/login", h.Auth.Login)
		auth.Post("/2fa/verify", h.Auth.VerifySecondFactor)
	}
	auth.Post("/validate-token", h.Auth.ValidateToken)

	// ============ PROTECTED ROUTES ============
	requireAuth := middleware.RequireAuth(cfg.Authenticator)
	auth.Post("/logout", requireAuth, h.Auth.Logout)
	auth.Post("/change-password", requireAuth, h.Auth.ChangePassword)
	auth.Get("/me", requireAuth, h.Auth.Me)

	protected := api.Group("", requireAuth)

	// Admin management
	protected.Get("/admins", middleware.RequirePermission(model.PermAdminsRead), h.Admins.GetAdmins)
	protected.Get("/admins/:id", middleware.RequirePermission(model.PermAdminsRead), h.Admins.GetAdmin)
	protected.Post("/admins", h.Admins.CreateAdmin)
	protected.Patch("/admins/:id", h.Admins.UpdateAdmin)
	protected.Put("/admins/:id", h.Admins.UpdateAdmin)
	protected.Delete("/admins/:id", h.Admins.DeleteAdmin)
	protected.Post("/admins/:id/suspend", h.Admins.SuspendAdmin)
	protected.Post("/admins/:id/activate", h.Admins.ActivateAdmin)
	protected.Post("/admins/:id/deactivate", h.Admins.DeactivateAdmin)
	protected.Post("/admins/:id/reset-password", h.Admins.ResetPassword)

	// Roles and the permission catalog
	protected.Get("/roles", middleware.RequirePermission(model.PermRolesRead), h.Roles.GetRoles)
	protected.Get("/roles/:id", middleware.RequirePermission(model.PermRolesRead), h.Roles.GetRole)
	protected.Post("/roles", h.Roles.CreateRole)
	protected.Patch("/roles/:id", h.Roles.UpdateRole)
	protected.Put("/roles/:id", h.Roles.UpdateRole)
	protected.Delete("/roles/:id", h.Roles.DeleteRole)
	protected.Get("/permissions", middleware.RequireAnyPermission(model.PermRolesRead, model.PermAdminsRead), h.Roles.GetPermissions)

	// Security policy
	protected.Get("/security/policy", middleware.RequirePermission(model.PermSecurityRead), h.Policy.GetPolicy)
	protected.Put("/security/policy", h.Policy.UpdatePolicy)
	protected.Post("/security/policy/validate-password", h.Policy.ValidatePassword)

	// Audit trails
	protected.Get("/logs/activity", middleware.RequirePermission(model.PermLogsRead), h.Logs.GetActivityLogs)
	protected.Get("/logs/logins", middleware.RequirePermission(model.PermLoginHistoryRead), h.Logs.GetLoginHistory)

	// WebSocket Route; browsers cannot set headers on upgrade, so ?token= is accepted
	if cfg.Hub != nil {
		app.Use("/ws", bearerFromQuery, requireAuth, cfg.Hub.Upgrade())
		app.Get("/ws", cfg.Hub.Handler())
	}
}

func bearerFromQuery(c *fiber.Ctx) error {
	if c.Get(fiber.HeaderAuthorization) == "" && c.Query("token") != "" {
		c.Request().Header.Set(fiber.HeaderAuthorization, "Bearer "+c.Query("token"))
	}
	return c.Next()
}
