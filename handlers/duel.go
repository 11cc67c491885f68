package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/oyolcinar/dus-backend-sub003/middleware"
	"github.com/oyolcinar/dus-backend-sub003/services"
)

func SetupDuelRoutes(app *fiber.App, duelService *services.DuelService) {
	// SSE stream authenticates via query token (EventSource limitation)
	app.Get("/api/duels/events", middleware.SSEAuthMiddleware(), duelService.StreamDuelEvents)

	// 🔐 Everything else rides bearer auth
	secured := app.Group("/api/duels", middleware.JWTAuthMiddleware())

	secured.Post("/challenge", duelService.Challenge)

	// Static paths before the :id wildcard so "pending" never parses as
	// a duel id.
	secured.Get("/pending", duelService.GetPending)
	secured.Get("/active", duelService.GetActive)
	secured.Get("/completed", duelService.GetCompleted)
	secured.Get("/leaderboard", duelService.GetLeaderboard)
	secured.Get("/recommended-opponents", duelService.RecommendedOpponents)
	secured.Get("/stats/user", duelService.UserStats)
	secured.Get("/branch/:branchId", duelService.GetByBranch)

	secured.Get("/:id", duelService.GetByID)
	secured.Get("/:id/questions", duelService.DuelQuestions)
	secured.Post("/:id/accept", duelService.Accept)
	secured.Post("/:id/decline", duelService.Decline)
	secured.Post("/:id/result", duelService.SubmitResult)
}
