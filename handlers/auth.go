package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/oyolcinar/dus-backend-sub003/middleware"
	"github.com/oyolcinar/dus-backend-sub003/services"
)

func SetupAuthRoutes(app *fiber.App, authService *services.AuthService) {
	// 🔓 Public routes
	app.Post("/api/auth/register", authService.Register)
	app.Post("/api/auth/login", authService.Login)

	// 🔐 Authenticated routes
	secured := app.Group("/api", middleware.JWTAuthMiddleware())
	secured.Get("/auth/me", authService.Me)
	secured.Put("/users/profile", authService.UpdateProfile)
}
