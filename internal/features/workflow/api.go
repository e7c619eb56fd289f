package workflow

import (
	"kademe-kys/internal/common/api"
	"kademe-kys/internal/config"
	"kademe-kys/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type WorkflowApi struct {
	controller *WorkflowController
	config     *config.Config
}

func NewWorkflowApi(controller *WorkflowController, config *config.Config) api.Route {
	return &WorkflowApi{
		controller: controller,
		config:     config,
	}
}

func (h *WorkflowApi) Setup(app *fiber.App) {
	group := app.Group("/api/workflows", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Post("/start", h.controller.Start)
	group.Get("/", h.controller.List)
	group.Get("/tasks/my", h.controller.MyTasks)
	group.Get("/:id", h.controller.Get)
	group.Post("/:id/cancel", h.controller.Cancel)
	group.Post("/:id/hold", h.controller.Hold)
	group.Post("/:id/resume", h.controller.Resume)
	group.Post("/:id/steps/:stepID/complete", h.controller.CompleteStep)

	templates := app.Group("/api/workflow-templates", middleware.AuthMiddleware(h.config.SkipAuth))
	templates.Get("/", h.controller.ListTemplates)
	templates.Get("/:id", h.controller.GetTemplate)
}
