package workflow

import (
	"errors"

	common_models "kademe-kys/internal/common/models"
	"kademe-kys/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type WorkflowController struct {
	engine *Engine
}

func NewWorkflowController(engine *Engine) *WorkflowController {
	return &WorkflowController{engine: engine}
}

type startWorkflowRequest struct {
	TemplateID string                 `json:"template_id"`
	ModuleType string                 `json:"module_type"`
	RecordID   string                 `json:"record_id"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Title      string                 `json:"title,omitempty"`
	Priority   string                 `json:"priority,omitempty"`
	DueInDays  int                    `json:"due_in_days,omitempty"`
}

func (c *WorkflowController) Start(ctx *fiber.Ctx) error {
	var req startWorkflowRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.TemplateID == "" || req.RecordID == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "template_id and record_id are required"})
	}

	actor := actorID(ctx)

	instance, err := c.engine.StartWorkflow(ctx.Context(), req.TemplateID, WorkflowContext{
		ModuleType: common_models.ModuleType(req.ModuleType),
		RecordID:   req.RecordID,
		Payload:    req.Payload,
	}, actor, StartOptions{
		Title:     req.Title,
		Priority:  Priority(req.Priority),
		DueInDays: req.DueInDays,
	})
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(instance)
}

type completeStepRequest struct {
	Outcome  string `json:"outcome"`
	Comments string `json:"comments,omitempty"`
}

func (c *WorkflowController) CompleteStep(ctx *fiber.Ctx) error {
	var req completeStepRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Outcome == "" {
		req.Outcome = OutcomeDone
	}

	instance, err := c.engine.CompleteStep(ctx.Context(),
		ctx.Params("id"), ctx.Params("stepID"), req.Outcome, req.Comments, actorID(ctx))
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(instance)
}

type cancelWorkflowRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (c *WorkflowController) Cancel(ctx *fiber.Ctx) error {
	var req cancelWorkflowRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	instance, err := c.engine.CancelWorkflow(ctx.Context(), ctx.Params("id"), actorID(ctx), req.Reason)
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(instance)
}

type holdWorkflowRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (c *WorkflowController) Hold(ctx *fiber.Ctx) error {
	var req holdWorkflowRequest
	if err := ctx.BodyParser(&req); err != nil && len(ctx.Body()) > 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	instance, err := c.engine.HoldWorkflow(ctx.Context(), ctx.Params("id"), actorID(ctx), req.Reason)
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(instance)
}

func (c *WorkflowController) Resume(ctx *fiber.Ctx) error {
	instance, err := c.engine.ResumeWorkflow(ctx.Context(), ctx.Params("id"), actorID(ctx))
	if err != nil {
		return errorResponse(ctx, err)
	}

	return ctx.JSON(instance)
}

func (c *WorkflowController) Get(ctx *fiber.Ctx) error {
	instance, err := c.engine.GetInstance(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, err)
	}
	return ctx.JSON(instance)
}

func (c *WorkflowController) List(ctx *fiber.Ctx) error {
	status := WorkflowStatus(ctx.Query("status"))
	instances := c.engine.ListInstances(status)
	return ctx.JSON(fiber.Map{
		"data":  instances,
		"total": len(instances),
	})
}

func (c *WorkflowController) MyTasks(ctx *fiber.Ctx) error {
	tasks := c.engine.GetUserActiveTasks(actorID(ctx))
	return ctx.JSON(fiber.Map{
		"data":  tasks,
		"total": len(tasks),
	})
}

func (c *WorkflowController) ListTemplates(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"data": c.engine.Templates().List()})
}

func (c *WorkflowController) GetTemplate(ctx *fiber.Ctx) error {
	tmpl, err := c.engine.Templates().Get(ctx.Params("id"))
	if err != nil {
		return errorResponse(ctx, err)
	}
	return ctx.JSON(tmpl)
}

func actorID(ctx *fiber.Ctx) string {
	if claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims); ok {
		return claims.UserID
	}
	return SystemActor
}

func errorResponse(ctx *fiber.Ctx, err error) error {
	var validation *ValidationError
	switch {
	case errors.Is(err, ErrTemplateNotFound),
		errors.Is(err, ErrInstanceNotFound),
		errors.Is(err, ErrStepNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrInvalidState):
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &validation), errors.Is(err, ErrDuplicateTemplate):
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}
