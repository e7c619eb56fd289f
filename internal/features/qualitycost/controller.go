package qualitycost

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type CostController struct {
	service CostService
}

func NewCostController(service CostService) *CostController {
	return &CostController{service: service}
}

func (c *CostController) Create(ctx *fiber.Ctx) error {
	var entry CostEntry
	if err := ctx.BodyParser(&entry); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.CreateEntry(ctx.Context(), &entry); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(entry)
}

func (c *CostController) Get(ctx *fiber.Ctx) error {
	entry, err := c.service.GetEntry(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if entry == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "cost entry not found"})
	}
	return ctx.JSON(entry)
}

func (c *CostController) List(ctx *fiber.Ctx) error {
	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "20"), 10, 64)

	filter := map[string]interface{}{}
	if costType := ctx.Query("type"); costType != "" {
		filter["type"] = costType
	}
	if unit := ctx.Query("unit"); unit != "" {
		filter["unit"] = unit
	}
	if partCode := ctx.Query("part_code"); partCode != "" {
		filter["part_code"] = partCode
	}

	entries, total, err := c.service.ListEntries(ctx.Context(), filter, page, limit)
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

func (c *CostController) Summary(ctx *fiber.Ctx) error {
	filter := map[string]interface{}{}
	if costType := ctx.Query("type"); costType != "" {
		filter["type"] = costType
	}

	summaries, err := c.service.SummarizeByUnit(ctx.Context(), filter)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"data": summaries})
}

func (c *CostController) Update(ctx *fiber.Ctx) error {
	var entry CostEntry
	if err := ctx.BodyParser(&entry); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.UpdateEntry(ctx.Context(), ctx.Params("id"), &entry); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"status": "success"})
}

func (c *CostController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.DeleteEntry(ctx.Context(), ctx.Params("id")); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"status": "success"})
}
