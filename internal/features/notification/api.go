package notification

import (
	"kademe-kys/internal/common/api"
	"kademe-kys/internal/config"
	"kademe-kys/internal/middleware"
	"kademe-kys/pkg/utils"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type NotificationApi struct {
	controller *NotificationController
	config     *config.Config
}

func NewNotificationApi(controller *NotificationController, config *config.Config) api.Route {
	return &NotificationApi{
		controller: controller,
		config:     config,
	}
}

func (h *NotificationApi) Setup(app *fiber.App) {
	group := app.Group("/api/notifications", middleware.AuthMiddleware(h.config.SkipAuth))

	group.Get("/", h.controller.List)
	group.Get("/unread-count", h.controller.GetUnreadCount)
	group.Put("/:id/read", h.controller.MarkAsRead)
	group.Post("/mark-all-read", h.controller.MarkAllAsRead)

	// websocket upgrade: capture the authenticated user before the
	// connection leaves fiber's handler chain
	app.Get("/api/ws/notifications",
		middleware.AuthMiddleware(h.config.SkipAuth),
		func(c *fiber.Ctx) error {
			if claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims); ok {
				c.Locals("wsUserID", claims.UserID)
			}
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
		websocket.New(h.controller.HandleWebSocket))
}
