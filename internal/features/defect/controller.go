package defect

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type DefectController struct {
	service DefectService
}

func NewDefectController(service DefectService) *DefectController {
	return &DefectController{service: service}
}

func (c *DefectController) Create(ctx *fiber.Ctx) error {
	var defect Defect
	if err := ctx.BodyParser(&defect); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.CreateDefect(ctx.Context(), &defect); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(defect)
}

func (c *DefectController) Get(ctx *fiber.Ctx) error {
	defect, err := c.service.GetDefect(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if defect == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "defect not found"})
	}
	return ctx.JSON(defect)
}

func (c *DefectController) List(ctx *fiber.Ctx) error {
	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "20"), 10, 64)

	filter := map[string]interface{}{}
	if status := ctx.Query("status"); status != "" {
		filter["status"] = status
	}
	if severity := ctx.Query("severity"); severity != "" {
		filter["severity"] = severity
	}
	if vehicleID := ctx.Query("vehicle_id"); vehicleID != "" {
		filter["vehicle_id"] = vehicleID
	}

	defects, total, err := c.service.ListDefects(ctx.Context(), filter, page, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"data":  defects,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (c *DefectController) Update(ctx *fiber.Ctx) error {
	var defect Defect
	if err := ctx.BodyParser(&defect); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.UpdateDefect(ctx.Context(), ctx.Params("id"), &defect); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"status": "success"})
}

type changeStatusRequest struct {
	Status DefectStatus `json:"status"`
}

func (c *DefectController) ChangeStatus(ctx *fiber.Ctx) error {
	var req changeStatusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	defect, err := c.service.ChangeStatus(ctx.Context(), ctx.Params("id"), req.Status)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(defect)
}

func (c *DefectController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.DeleteDefect(ctx.Context(), ctx.Params("id")); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"status": "success"})
}
