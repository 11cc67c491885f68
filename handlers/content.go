package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/oyolcinar/dus-backend-sub003/middleware"
	"github.com/oyolcinar/dus-backend-sub003/services"
)

func SetupContentRoutes(app *fiber.App, courseService *services.CourseService) {
	// 🔐 Reads are open to any authenticated user
	secured := app.Group("/api", middleware.JWTAuthMiddleware())

	secured.Get("/courses", courseService.ListCourses)
	secured.Get("/courses/:id", courseService.GetCourse)
	secured.Get("/courses/:id/topics", courseService.ListTopics)
	secured.Get("/topics/:id/subtopics", courseService.ListSubtopics)
	secured.Get("/tests", courseService.ListTests)
	secured.Get("/tests/:id", courseService.GetTest)
	secured.Get("/tests/:id/questions", courseService.ListQuestions)

	// 🔒 Mutations are admin-only
	admin := secured.Group("/", middleware.AdminOnly())
	admin.Post("/courses", courseService.CreateCourse)
	admin.Put("/courses/:id", courseService.UpdateCourse)
	admin.Delete("/courses/:id", courseService.DeleteCourse)

	admin.Post("/topics", courseService.CreateTopic)
	admin.Put("/topics/:id", courseService.UpdateTopic)
	admin.Delete("/topics/:id", courseService.DeleteTopic)

	admin.Post("/subtopics", courseService.CreateSubtopic)
	admin.Delete("/subtopics/:id", courseService.DeleteSubtopic)

	admin.Post("/tests", courseService.CreateTest)
	admin.Delete("/tests/:id", courseService.DeleteTest)

	admin.Post("/questions", courseService.CreateQuestion)
	admin.Delete("/questions/:id", courseService.DeleteQuestion)
}
