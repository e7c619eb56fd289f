package middleware

import (
	"kademe-kys/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// RequireRole gates a route behind one of the given role names. Must run
// after AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(utils.UserClaimsKey).(*utils.UserClaims)
		if !ok || claims == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		for _, have := range claims.Roles {
			for _, want := range roles {
				if have == want {
					return c.Next()
				}
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Access denied: insufficient role",
		})
	}
}
