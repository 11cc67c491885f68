package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/oyolcinar/dus-backend-sub003/handlers"
	"github.com/oyolcinar/dus-backend-sub003/middleware"
	"github.com/oyolcinar/dus-backend-sub003/models"
	"github.com/oyolcinar/dus-backend-sub003/services"
	"github.com/oyolcinar/dus-backend-sub003/utils"
	"github.com/oyolcinar/dus-backend-sub003/workers"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB, covers avatar/cover uploads
	})

	app.Use(middleware.MetricsMiddleware())

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Topic{},
		&models.Subtopic{},
		&models.Test{},
		&models.Question{},
		&models.Duel{},
		&models.DuelResult{},
		&models.StudySession{},
		&models.SubtopicProgress{},
		&models.QuestionAnswer{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional: without it the leaderboard serves straight from
	// the store and no rebuild loop runs.
	var board *services.LeaderboardCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("⚠️  Redis unreachable at %s, leaderboard cache disabled: %v", addr, err)
		} else {
			board = services.NewLeaderboardCache(rdb)
			go workers.PollLeaderboard(ctx, db, board, 60*time.Second)
		}
	} else {
		log.Println("⚠️  REDIS_ADDR not set, leaderboard cache disabled")
	}

	authService := services.NewAuthService(db)
	courseService := services.NewCourseService(db)
	duelService := services.NewDuelService(db, board)
	studyService := services.NewStudyService(db)
	progressService := services.NewProgressService(db)
	analyticsService := services.NewAnalyticsService(db, progressService)

	duelService.StartExpiryScheduler()

	handlers.SetupAuthRoutes(app, authService)
	handlers.SetupContentRoutes(app, courseService)
	handlers.SetupDuelRoutes(app, duelService)
	handlers.SetupStudyRoutes(app, studyService, progressService)
	handlers.SetupAnalyticsRoutes(app, analyticsService)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Static("/uploads", "./uploads")

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Duel expiry scheduler running (every 15m)")
	if board != nil {
		log.Println("✅ Leaderboard cache rebuild running (every 60s)")
	}
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
