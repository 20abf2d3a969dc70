package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"go-admin-console/internal/middleware"
	"go-admin-console/internal/service"
	"go-admin-console/pkg/jwt"
)

// base carries what every handler needs to answer errors
type base struct {
	log *zap.Logger
}

func newBase(log *zap.Logger) base {
	if log == nil {
		log = zap.NewNop()
	}
	return base{log: log}
}

// fail maps service errors onto HTTP responses
func (b base) fail(c *fiber.Ctx, err error) error {
	var (
		validationErr *service.ValidationError
		policyErr     *service.PasswordPolicyError
		permErr       *service.InvalidPermissionError
	)

	switch {
	case errors.Is(err, service.ErrDuplicateEmail):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "code": "duplicate_email"})
	case errors.Is(err, service.ErrDuplicateName):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "code": "duplicate_name"})
	case errors.As(err, &permErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   err.Error(),
			"code":    "invalid_permission",
			"invalid": permErr.Tokens,
		})
	case errors.As(err, &policyErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":      err.Error(),
			"code":       "weak_password",
			"violations": policyErr.Violations,
		})
	case errors.As(err, &validationErr):
		body := fiber.Map{"error": validationErr.Error(), "code": "validation_failed"}
		if len(validationErr.Fields) > 0 {
			body["fields"] = validationErr.Fields
		}
		if len(validationErr.Violations) > 0 {
			body["violations"] = validationErr.Violations
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.Is(err, service.ErrInvalidRole):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error(), "code": "invalid_role"})
	case errors.Is(err, service.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden", "code": "forbidden"})
	case errors.Is(err, service.ErrProtectedResource):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error(), "code": "protected_resource"})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error(), "code": "not_found"})
	case errors.Is(err, service.ErrResourceInUse):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "code": "resource_in_use"})
	case errors.Is(err, service.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "code": "invalid_transition"})
	case service.IsRetryable(err):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "code": "conflict", "retryable": true})
	case errors.Is(err, service.ErrWrongPassword):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "code": "wrong_password"})
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, service.ErrAccountNotActive),
		errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, jwt.ErrMissingToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired session", "code": "unauthenticated"})
	case errors.Is(err, service.ErrChallengeExpired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error(), "code": "challenge_expired"})
	}

	b.log.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

func badJSON(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
}

func badID(c *fiber.Ctx, what string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid " + what + " ID"})
}

// actor builds the service actor from the authenticated request
func actor(c *fiber.Ctx) service.Actor {
	sessionID, _ := c.Locals(middleware.LocalSessionID).(string)
	return service.Actor{
		Admin:     middleware.CurrentAdmin(c),
		IPAddress: c.IP(),
		SessionID: sessionID,
	}
}
