package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"go-admin-console/internal/model"
	"go-admin-console/internal/repository"
	"go-admin-console/internal/service"
)

type LogHandler struct {
	base
	auditService service.AuditService
}

func NewLogHandler(auditService service.AuditService, log *zap.Logger) *LogHandler {
	return &LogHandler{base: newBase(log), auditService: auditService}
}

func invalidDate(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, use YYYY-MM-DD or RFC 3339"})
}

// GetActivityLogs GET /api/v1/logs/activity
func (h *LogHandler) GetActivityLogs(c *fiber.Ctx) error {
	performedBy, ok := uuidQuery(c, "performed_by")
	if !ok {
		return badID(c, "admin")
	}
	start, ok := timeQuery(c, "start_date", false)
	if !ok {
		return invalidDate(c)
	}
	end, ok := timeQuery(c, "end_date", true)
	if !ok {
		return invalidDate(c)
	}
	filter := repository.ActivityLogFilter{
		ActionType:  model.ActionType(c.Query("action_type")),
		PerformedBy: performedBy,
		StartDate:   start,
		EndDate:     end,
	}
	if filter.ActionType != "" && !filter.ActionType.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid action_type"})
	}

	result, err := h.auditService.ListActivityLogs(c.UserContext(), filter, pageQuery(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}

// GetLoginHistory GET /api/v1/logs/logins
func (h *LogHandler) GetLoginHistory(c *fiber.Ctx) error {
	adminID, ok := uuidQuery(c, "admin_id")
	if !ok {
		return badID(c, "admin")
	}
	start, ok := timeQuery(c, "start_date", false)
	if !ok {
		return invalidDate(c)
	}
	end, ok := timeQuery(c, "end_date", true)
	if !ok {
		return invalidDate(c)
	}
	filter := repository.LoginAttemptFilter{
		AdminID:    adminID,
		Success:    boolQuery(c, "success"),
		Suspicious: boolQuery(c, "suspicious"),
		StartDate:  start,
		EndDate:    end,
	}

	result, err := h.auditService.ListLoginHistory(c.UserContext(), filter, pageQuery(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}
