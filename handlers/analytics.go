package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/oyolcinar/dus-backend-sub003/middleware"
	"github.com/oyolcinar/dus-backend-sub003/services"
)

func SetupAnalyticsRoutes(app *fiber.App, analyticsService *services.AnalyticsService) {
	secured := app.Group("/api", middleware.JWTAuthMiddleware())

	secured.Post("/answers", analyticsService.RecordAnswer)
	secured.Get("/analytics/user", analyticsService.UserAnalytics)
	secured.Get("/analytics/duels", analyticsService.DuelAnalytics)
}
