package qualitycost

import (
	"kademe-kys/internal/common/api"
	"kademe-kys/internal/config"
	"kademe-kys/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type CostApi struct {
	controller *CostController
	config     *config.Config
}

func NewCostApi(controller *CostController, config *config.Config) api.Route {
	return &CostApi{
		controller: controller,
		config:     config,
	}
}

func (h *CostApi) Setup(app *fiber.App) {
	group := app.Group("/api/quality-costs", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", h.controller.Create)
	group.Get("/", h.controller.List)
	group.Get("/summary", h.controller.Summary)
	group.Get("/:id", h.controller.Get)
	group.Put("/:id", h.controller.Update)
	group.Delete("/:id", h.controller.Delete)
}
