package importer

import (
	"kademe-kys/internal/common/api"
	"kademe-kys/internal/config"
	"kademe-kys/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ImportApi struct {
	controller *ImportController
	config     *config.Config
}

func NewImportApi(controller *ImportController, config *config.Config) api.Route {
	return &ImportApi{
		controller: controller,
		config:     config,
	}
}

func (h *ImportApi) Setup(app *fiber.App) {
	group := app.Group("/api/import", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/quality-costs/preview", h.controller.Preview)
	group.Post("/quality-costs", h.controller.Import)
}
