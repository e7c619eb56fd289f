package dof

import (
	"strconv"

	"kademe-kys/internal/features/workflow"

	"github.com/gofiber/fiber/v2"
)

type DOFController struct {
	service DOFService
}

func NewDOFController(service DOFService) *DOFController {
	return &DOFController{service: service}
}

func (c *DOFController) Create(ctx *fiber.Ctx) error {
	var record DOFRecord
	if err := ctx.BodyParser(&record); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.CreateRecord(ctx.Context(), &record); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(record)
}

func (c *DOFController) Get(ctx *fiber.Ctx) error {
	record, err := c.service.GetRecord(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if record == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "record not found"})
	}
	return ctx.JSON(record)
}

func (c *DOFController) List(ctx *fiber.Ctx) error {
	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "20"), 10, 64)

	filter := map[string]interface{}{}
	if status := ctx.Query("status"); status != "" {
		filter["status"] = status
	}
	if dofType := ctx.Query("type"); dofType != "" {
		filter["type"] = dofType
	}
	if department := ctx.Query("department"); department != "" {
		filter["department"] = department
	}

	records, total, err := c.service.ListRecords(ctx.Context(), filter, page, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"data":  records,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (c *DOFController) Update(ctx *fiber.Ctx) error {
	var record DOFRecord
	if err := ctx.BodyParser(&record); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.UpdateRecord(ctx.Context(), ctx.Params("id"), &record); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"status": "success"})
}

type openWorkflowRequest struct {
	Priority workflow.Priority `json:"priority"`
}

func (c *DOFController) OpenWorkflow(ctx *fiber.Ctx) error {
	var req openWorkflowRequest
	if err := ctx.BodyParser(&req); err != nil && len(ctx.Body()) > 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	instance, err := c.service.OpenWorkflow(ctx.Context(), ctx.Params("id"), req.Priority)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(instance)
}

func (c *DOFController) Close(ctx *fiber.Ctx) error {
	record, err := c.service.CloseRecord(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(record)
}

func (c *DOFController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.DeleteRecord(ctx.Context(), ctx.Params("id")); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"status": "success"})
}
