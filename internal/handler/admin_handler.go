package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-admin-console/internal/model"
	"go-admin-console/internal/repository"
	"go-admin-console/internal/service"
)

type AdminHandler struct {
	base
	adminService service.AdminService
}

func NewAdminHandler(adminService service.AdminService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{base: newBase(log), adminService: adminService}
}

// CreateAdmin handles admin creation
// POST /api/v1/admins
func (h *AdminHandler) CreateAdmin(c *fiber.Ctx) error {
	var req service.CreateAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	admin, err := h.adminService.CreateAdmin(c.UserContext(), actor(c), &req)
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Admin created successfully",
		"data":    admin.ToResponse(),
	})
}

// GetAdmins returns a filtered page of admins
// GET /api/v1/admins
func (h *AdminHandler) GetAdmins(c *fiber.Ctx) error {
	roleID, ok := uuidQuery(c, "role_id")
	if !ok {
		return badID(c, "role")
	}
	filter := repository.AdminFilter{
		Search:     c.Query("search"),
		Status:     model.AccountStatus(c.Query("status")),
		RoleID:     roleID,
		Department: c.Query("department"),
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status filter"})
	}

	result, err := h.adminService.ListAdmins(c.UserContext(), filter, pageQuery(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}

// GetAdmin returns a single admin by ID
// GET /api/v1/admins/:id
func (h *AdminHandler) GetAdmin(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c, "admin")
	}

	admin, err := h.adminService.GetAdmin(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"data": admin.ToResponse()})
}

// UpdateAdmin applies a partial update
// PATCH /api/v1/admins/:id
func (h *AdminHandler) UpdateAdmin(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c, "admin")
	}

	var req service.UpdateAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}

	admin, err := h.adminService.UpdateAdmin(c.UserContext(), actor(c), id, &req)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Admin updated successfully",
		"data":    admin.ToResponse(),
	})
}

// DeleteAdmin handles admin deletion
// DELETE /api/v1/admins/:id
func (h *AdminHandler) DeleteAdmin(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c, "admin")
	}

	if err := h.adminService.DeleteAdmin(c.UserContext(), actor(c), id); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Admin deleted successfully"})
}

// SuspendAdmin POST /api/v1/admins/:id/suspend
func (h *AdminHandler) SuspendAdmin(c *fiber.Ctx) error {
	return h.changeStatus(c, h.adminService.SuspendAdmin, "Admin suspended")
}

// ActivateAdmin POST /api/v1/admins/:id/activate
func (h *AdminHandler) ActivateAdmin(c *fiber.Ctx) error {
	return h.changeStatus(c, h.adminService.ActivateAdmin, "Admin activated")
}

// DeactivateAdmin POST /api/v1/admins/:id/deactivate
func (h *AdminHandler) DeactivateAdmin(c *fiber.Ctx) error {
	return h.changeStatus(c, h.adminService.DeactivateAdmin, "Admin deactivated")
}

type statusChange func(ctx context.Context, actor service.Actor, id uuid.UUID) (*model.Admin, error)

func (h *AdminHandler) changeStatus(c *fiber.Ctx, change statusChange, message string) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c, "admin")
	}

	admin, err := change(c.UserContext(), actor(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": message,
		"data":    admin.ToResponse(),
	})
}

// ResetPasswordRequest represents the reset password request body
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// ResetPassword sets a new password for another admin
// POST /api/v1/admins/:id/reset-password
func (h *AdminHandler) ResetPassword(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badID(c, "admin")
	}

	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badJSON(c)
	}
	if req.NewPassword == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "new_password is required"})
	}

	if err := h.adminService.ResetPassword(c.UserContext(), actor(c), id, req.NewPassword); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password reset successfully"})
}
