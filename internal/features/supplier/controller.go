package supplier

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

type SupplierController struct {
	service SupplierService
}

func NewSupplierController(service SupplierService) *SupplierController {
	return &SupplierController{service: service}
}

func (c *SupplierController) Create(ctx *fiber.Ctx) error {
	var supplier Supplier
	if err := ctx.BodyParser(&supplier); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.CreateSupplier(ctx.Context(), &supplier); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(supplier)
}

func (c *SupplierController) Get(ctx *fiber.Ctx) error {
	supplier, err := c.service.GetSupplier(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if supplier == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "supplier not found"})
	}
	return ctx.JSON(supplier)
}

func (c *SupplierController) List(ctx *fiber.Ctx) error {
	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "20"), 10, 64)

	filter := map[string]interface{}{}
	if status := ctx.Query("status"); status != "" {
		filter["status"] = status
	}
	if category := ctx.Query("category"); category != "" {
		filter["category"] = category
	}

	suppliers, total, err := c.service.ListSuppliers(ctx.Context(), filter, page, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"data":  suppliers,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (c *SupplierController) Update(ctx *fiber.Ctx) error {
	var supplier Supplier
	if err := ctx.BodyParser(&supplier); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.UpdateSupplier(ctx.Context(), ctx.Params("id"), &supplier); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"status": "success"})
}

func (c *SupplierController) RecordAudit(ctx *fiber.Ctx) error {
	var supplierAudit SupplierAudit
	if err := ctx.BodyParser(&supplierAudit); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.RecordAudit(ctx.Context(), ctx.Params("id"), &supplierAudit); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(supplierAudit)
}

func (c *SupplierController) ReportNonconformity(ctx *fiber.Ctx) error {
	var nc Nonconformity
	if err := ctx.BodyParser(&nc); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.service.ReportNonconformity(ctx.Context(), ctx.Params("id"), &nc); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(nc)
}

func (c *SupplierController) CloseNonconformity(ctx *fiber.Ctx) error {
	if err := c.service.CloseNonconformity(ctx.Context(), ctx.Params("id"), ctx.Params("ncID")); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"status": "success"})
}

func (c *SupplierController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.DeleteSupplier(ctx.Context(), ctx.Params("id")); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(fiber.Map{"status": "success"})
}
