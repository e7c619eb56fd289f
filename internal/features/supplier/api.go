package supplier

import (
	"kademe-kys/internal/common/api"
	"kademe-kys/internal/config"
	"kademe-kys/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SupplierApi struct {
	controller *SupplierController
	config     *config.Config
}

func NewSupplierApi(controller *SupplierController, config *config.Config) api.Route {
	return &SupplierApi{
		controller: controller,
		config:     config,
	}
}

func (h *SupplierApi) Setup(app *fiber.App) {
	group := app.Group("/api/suppliers", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", h.controller.Create)
	group.Get("/", h.controller.List)
	group.Get("/:id", h.controller.Get)
	group.Put("/:id", h.controller.Update)
	group.Post("/:id/audits", h.controller.RecordAudit)
	group.Post("/:id/nonconformities", h.controller.ReportNonconformity)
	group.Post("/:id/nonconformities/:ncID/close", h.controller.CloseNonconformity)
	group.Delete("/:id", h.controller.Delete)
}
