package audit

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type AuditController struct {
	service AuditService
}

func NewAuditController(service AuditService) *AuditController {
	return &AuditController{service: service}
}

func (c *AuditController) List(ctx *fiber.Ctx) error {
	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "50"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	filters := map[string]interface{}{}
	if module := ctx.Query("module"); module != "" {
		filters["module"] = module
	}
	if recordID := ctx.Query("record_id"); recordID != "" {
		filters["record_id"] = recordID
	}
	if actorID := ctx.Query("actor_id"); actorID != "" {
		filters["actor_id"] = actorID
	}
	if action := ctx.Query("action"); action != "" {
		filters["action"] = action
	}

	logs, err := c.service.ListLogs(ctx.Context(), filters, limit, (page-1)*limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"data":  logs,
		"page":  page,
		"limit": limit,
	})
}
