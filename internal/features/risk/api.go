package risk

import (
	"kademe-kys/internal/common/api"
	"kademe-kys/internal/config"
	"kademe-kys/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type RiskApi struct {
	controller *RiskController
	config     *config.Config
}

func NewRiskApi(controller *RiskController, config *config.Config) api.Route {
	return &RiskApi{
		controller: controller,
		config:     config,
	}
}

func (h *RiskApi) Setup(app *fiber.App) {
	group := app.Group("/api/risks", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", h.controller.Create)
	group.Get("/", h.controller.List)
	group.Get("/:id", h.controller.Get)
	group.Put("/:id", h.controller.Update)
	group.Delete("/:id", h.controller.Delete)
}
