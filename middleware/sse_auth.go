// middleware/sse_auth.go
package middleware

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/oyolcinar/dus-backend-sub003/utils"
)

// SSEAuthMiddleware authenticates event-stream routes from a `token`
// query parameter: EventSource cannot set an Authorization header.
//
// Usage:
//
//	app.Get("/api/duels/events", middleware.SSEAuthMiddleware(), duelService.StreamDuelEvents)
func SSEAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "missing token in query",
			})
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			log.Printf("🚫 [SSE_AUTH] rejected stream token on %s: %v", c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("user_role", claims.Role)
		return c.Next()
	}
}
