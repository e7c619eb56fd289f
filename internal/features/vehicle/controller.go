package vehicle

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type VehicleController struct {
	service VehicleService
}

func NewVehicleController(service VehicleService) *VehicleController {
	return &VehicleController{service: service}
}

func (c *VehicleController) Create(ctx *fiber.Ctx) error {
	var vehicle Vehicle
	if err := ctx.BodyParser(&vehicle); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.CreateVehicle(ctx.Context(), &vehicle); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(vehicle)
}

func (c *VehicleController) Get(ctx *fiber.Ctx) error {
	vehicle, err := c.service.GetVehicle(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if vehicle == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "vehicle not found"})
	}
	return ctx.JSON(vehicle)
}

func (c *VehicleController) List(ctx *fiber.Ctx) error {
	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "20"), 10, 64)

	filter := map[string]interface{}{}
	if state := ctx.Query("state"); state != "" {
		filter["state"] = state
	}
	if model := ctx.Query("model"); model != "" {
		filter["model"] = model
	}
	if project := ctx.Query("project"); project != "" {
		filter["project"] = project
	}

	vehicles, total, err := c.service.ListVehicles(ctx.Context(), filter, page, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"data":  vehicles,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

type moveStateRequest struct {
	State VehicleState `json:"state"`
	Note  string       `json:"note"`
}

func (c *VehicleController) MoveState(ctx *fiber.Ctx) error {
	var req moveStateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	vehicle, err := c.service.MoveState(ctx.Context(), ctx.Params("id"), req.State, req.Note)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(vehicle)
}

func (c *VehicleController) Warnings(ctx *fiber.Ctx) error {
	warnings, err := c.service.Warnings(ctx.Context())
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"data": warnings})
}

func (c *VehicleController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.DeleteVehicle(ctx.Context(), ctx.Params("id")); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"status": "success"})
}
