package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/oyolcinar/dus-backend-sub003/middleware"
	"github.com/oyolcinar/dus-backend-sub003/services"
)

func SetupStudyRoutes(app *fiber.App, studyService *services.StudyService, progressService *services.ProgressService) {
	secured := app.Group("/api", middleware.JWTAuthMiddleware())

	secured.Post("/study/sessions", studyService.StartSession)
	secured.Post("/study/sessions/:id/end", studyService.EndSession)
	secured.Get("/study/sessions", studyService.ListSessions)
	secured.Get("/study/summary", studyService.Summary)

	secured.Get("/progress", progressService.Overview)
	secured.Get("/progress/due", progressService.DueReviews)
}
