package risk

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type RiskController struct {
	service RiskService
}

func NewRiskController(service RiskService) *RiskController {
	return &RiskController{service: service}
}

func (c *RiskController) Create(ctx *fiber.Ctx) error {
	var entry RiskEntry
	if err := ctx.BodyParser(&entry); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.CreateRisk(ctx.Context(), &entry); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(entry)
}

func (c *RiskController) Get(ctx *fiber.Ctx) error {
	entry, err := c.service.GetRisk(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if entry == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "risk not found"})
	}
	return ctx.JSON(entry)
}

func (c *RiskController) List(ctx *fiber.Ctx) error {
	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "20"), 10, 64)

	filter := map[string]interface{}{}
	if status := ctx.Query("status"); status != "" {
		filter["status"] = status
	}
	if category := ctx.Query("category"); category != "" {
		filter["category"] = category
	}
	if unit := ctx.Query("unit"); unit != "" {
		filter["unit"] = unit
	}

	entries, total, err := c.service.ListRisks(ctx.Context(), filter, page, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"data":  entries,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (c *RiskController) Update(ctx *fiber.Ctx) error {
	var entry RiskEntry
	if err := ctx.BodyParser(&entry); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.UpdateRisk(ctx.Context(), ctx.Params("id"), &entry); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"status": "success"})
}

func (c *RiskController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.DeleteRisk(ctx.Context(), ctx.Params("id")); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"status": "success"})
}
