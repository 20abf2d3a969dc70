package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-admin-console/internal/repository"
	"go-admin-console/internal/service"
)

type RoleHandler struct {
	base
	roleService service.RoleService
}

func NewRoleHandler(roleService service.RoleService, log *zap.Logger) *RoleHandler {
	return &RoleHandler{base: newBase(log), roleService: roleService}
}

// GetRoles returns all roles
// GET /api/v1/roles
func (h *RoleHandler) GetRoles(c *fiber.Ctx) error {
	filter := repository.RoleFilter{
		Search:     c.Query("search"),
		SystemRole: boolQuery(c, "system"),
	}
	roles, err := h.roleService.ListRoles(c.UserContext(), filter)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"data": roles})
}

// GetRole returns a single role
// GET /api/v1/roles/:id
func (h *RoleHandler) GetRole(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c, "role")
	}
	role, err := h.roleService.GetRole(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"data": role})
}

// CreateRole POST /api/v1/roles
func (h *RoleHandler) CreateRole(c *fiber.Ctx) error {
	var req service.CreateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	role, err := h.roleService.CreateRole(c.UserContext(), actor(c), &req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Role created successfully",
		"data":    role,
	})
}

// UpdateRole PATCH /api/v1/roles/:id
func (h *RoleHandler) UpdateRole(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c, "role")
	}
	var req service.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	role, err := h.roleService.UpdateRole(c.UserContext(), actor(c), id, &req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Role updated successfully",
		"data":    role,
	})
}

// DeleteRole DELETE /api/v1/roles/:id
func (h *RoleHandler) DeleteRole(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c, "role")
	}
	if err := h.roleService.DeleteRole(c.UserContext(), actor(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Role deleted successfully"})
}

// GetPermissions lists the permission catalog grouped by module
// GET /api/v1/permissions
func (h *RoleHandler) GetPermissions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.roleService.ListPermissionModules()})
}
