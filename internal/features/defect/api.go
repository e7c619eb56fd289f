package defect

import (
	"kademe-kys/internal/common/api"
	"kademe-kys/internal/config"
	"kademe-kys/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DefectApi struct {
	controller *DefectController
	config     *config.Config
}

func NewDefectApi(controller *DefectController, config *config.Config) api.Route {
	return &DefectApi{
		controller: controller,
		config:     config,
	}
}

func (h *DefectApi) Setup(app *fiber.App) {
	group := app.Group("/api/defects", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", h.controller.Create)
	group.Get("/", h.controller.List)
	group.Get("/:id", h.controller.Get)
	group.Put("/:id", h.controller.Update)
	group.Post("/:id/status", h.controller.ChangeStatus)
	group.Delete("/:id", h.controller.Delete)
}
