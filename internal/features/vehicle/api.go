package vehicle

import (
	"kademe-kys/internal/common/api"
	"kademe-kys/internal/config"
	"kademe-kys/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type VehicleApi struct {
	controller *VehicleController
	config     *config.Config
}

func NewVehicleApi(controller *VehicleController, config *config.Config) api.Route {
	return &VehicleApi{
		controller: controller,
		config:     config,
	}
}

func (h *VehicleApi) Setup(app *fiber.App) {
	group := app.Group("/api/vehicles", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/", h.controller.Create)
	group.Get("/", h.controller.List)
	group.Get("/warnings", h.controller.Warnings)
	group.Get("/:id", h.controller.Get)
	group.Post("/:id/state", h.controller.MoveState)
	group.Delete("/:id", h.controller.Delete)
}
