package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"go-admin-console/internal/access"
	"go-admin-console/internal/middleware"
	"go-admin-console/internal/service"
	"go-admin-console/pkg/validator"
)

type AuthHandler struct {
	base
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{base: newBase(log), authService: authService}
}

func loginStatus(result service.LoginResult) int {
	switch result {
	case service.LoginAllowed:
		return fiber.StatusOK
	case service.LoginAwaitingSecondFactor:
		return fiber.StatusAccepted
	case service.LoginLocked:
		return fiber.StatusLocked
	}
	return fiber.StatusUnauthorized
}

// Login handles admin authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Email and password are required"})
	}
	req.IPAddress = c.IP()
	req.UserAgent = c.Get(fiber.HeaderUserAgent)

	response, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(loginStatus(response.Result)).JSON(response)
}

// VerifySecondFactor completes a login that is waiting for a TOTP code
// POST /api/v1/auth/2fa/verify
func (h *AuthHandler) VerifySecondFactor(c *fiber.Ctx) error {
	var req service.SecondFactorRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "challenge_id and a 6 digit code are required"})
	}
	req.IPAddress = c.IP()
	req.UserAgent = c.Get(fiber.HeaderUserAgent)

	response, err := h.authService.VerifySecondFactor(c.UserContext(), &req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(loginStatus(response.Result)).JSON(response)
}

// Logout revokes the current session
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), actor(c).SessionID); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// ChangePassword lets the signed-in admin rotate their own password
// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req service.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	if err := h.authService.ChangePassword(c.UserContext(), actor(c), &req); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

// ValidateTokenRequest represents the validate token request body
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateToken handles JWT token validation
// POST /api/v1/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req ValidateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	if req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Token is required"})
	}

	admin, claims, err := h.authService.Authenticate(c.UserContext(), req.Token)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"admin":       admin.ToResponse(),
		"permissions": access.EffectivePermissions(admin).Strings(),
		"expires_at":  claims.ExpiresAt,
	})
}

// Me returns the signed-in admin and their effective permissions
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	admin := middleware.CurrentAdmin(c)
	return c.JSON(fiber.Map{
		"admin":       admin.ToResponse(),
		"permissions": access.EffectivePermissions(admin).Strings(),
	})
}
