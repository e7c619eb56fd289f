package dof

import (
	"kademe-kys/internal/common/api"
	"kademe-kys/internal/config"
	"kademe-kys/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DOFApi struct {
	controller *DOFController
	config     *config.Config
}

func NewDOFApi(controller *DOFController, config *config.Config) api.Route {
	return &DOFApi{
		controller: controller,
		config:     config,
	}
}

func (h *DOFApi) Setup(app *fiber.App) {
	group := app.Group("/api/dof", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", h.controller.Create)
	group.Get("/", h.controller.List)
	group.Get("/:id", h.controller.Get)
	group.Put("/:id", h.controller.Update)
	group.Post("/:id/workflow", h.controller.OpenWorkflow)
	group.Post("/:id/close", h.controller.Close)
	group.Delete("/:id", h.controller.Delete)
}
