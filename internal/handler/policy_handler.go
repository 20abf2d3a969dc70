package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"go-admin-console/internal/service"
)

type PolicyHandler struct {
	base
	policyService service.PolicyService
}

func NewPolicyHandler(policyService service.PolicyService, log *zap.Logger) *PolicyHandler {
	return &PolicyHandler{base: newBase(log), policyService: policyService}
}

// GetPolicy GET /api/v1/security/policy
func (h *PolicyHandler) GetPolicy(c *fiber.Ctx) error {
	policy, err := h.policyService.GetPolicy(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"data": policy})
}

// UpdatePolicy replaces the policy; the body must carry the version it was read at
// PUT /api/v1/security/policy
func (h *PolicyHandler) UpdatePolicy(c *fiber.Ctx) error {
	var req service.UpdatePolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	policy, err := h.policyService.UpdatePolicy(c.UserContext(), actor(c), &req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Security policy updated",
		"data":    policy,
	})
}

// ValidatePassword reports which policy rules a candidate password breaks
// POST /api/v1/security/policy/validate-password
func (h *PolicyHandler) ValidatePassword(c *fiber.Ctx) error {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	violations, err := h.policyService.ValidatePassword(c.UserContext(), req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"valid":      len(violations) == 0,
		"violations": violations,
	})
}
