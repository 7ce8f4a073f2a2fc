package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"wordrush/backend/internal/auth"
	"wordrush/backend/internal/config"
	"wordrush/backend/internal/database"
	"wordrush/backend/internal/dictionary"
	"wordrush/backend/internal/game"
	"wordrush/backend/internal/handler"
	"wordrush/backend/internal/hub"
	"wordrush/backend/internal/leaderboard"
	"wordrush/backend/internal/tiles"
	"wordrush/backend/internal/worker"

	// Swagger imports
	_ "wordrush/backend/docs" // This is important for swag to find the generated docs

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func init() {
	config.LoadConfig()
}

// @title           WordRush API
// @version         1.0
// @description     This is the API for the WordRush game service.
// @host            localhost:8080
// @BasePath        /api/v1
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(config.AppConfig.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	// Connect to the database
	database.Connect(config.AppConfig.DatabaseURL)

	dict, err := dictionary.LoadFile(config.AppConfig.DictionaryPath)
	if err != nil {
		log.Fatalf("Failed to load dictionary: %v", err)
	}
	logger.WithField("words", dict.Size()).Info("Dictionary loaded")

	generator := tiles.NewGenerator(dict)
	eventHub := hub.NewHub()

	// The redis leaderboard mirror is optional; without it solo runs still
	// persist, rank reads just come back empty.
	var board *leaderboard.Leaderboard
	if config.AppConfig.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: config.AppConfig.RedisAddr})
		board = leaderboard.New(rdb)
		logger.WithField("addr", config.AppConfig.RedisAddr).Info("Redis leaderboard mirror enabled")
	}

	soloEngine := game.NewSoloEngine(database.DB, dict, generator, board, logger)
	matchEngine := game.NewMatchEngine(database.DB, dict, generator, eventHub, logger)

	cleanupWorker := worker.NewCleanupWorker(matchEngine, logger)
	if err := cleanupWorker.Start(); err != nil {
		log.Fatalf("Failed to start cleanup worker: %v", err)
	}
	defer cleanupWorker.Stop()

	soloHandler := handler.NewSoloHandler(soloEngine, logger)
	matchHandler := handler.NewMatchHandler(matchEngine, logger)
	eventsHandler := handler.NewEventsHandler(matchEngine, eventHub, logger)
	leaderboardHandler := handler.NewLeaderboardHandler(board, logger)

	router := gin.Default()

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// API v1 routes
	apiV1 := router.Group("/api/v1")
	{
		// Solo routes (protected)
		soloRoutes := apiV1.Group("/solo")
		soloRoutes.Use(auth.AuthMiddleware())
		{
			soloRoutes.POST("/runs", soloHandler.StartRun)
			soloRoutes.GET("/runs/:id", soloHandler.GetRun)
			soloRoutes.POST("/runs/:id/words", soloHandler.SubmitWord)
			soloRoutes.POST("/runs/:id/finish", soloHandler.FinishRun)
			soloRoutes.POST("/runs/:id/leaderboard", soloHandler.SubmitToLeaderboard)
		}

		// Match routes (protected)
		matchRoutes := apiV1.Group("/matches")
		matchRoutes.Use(auth.AuthMiddleware())
		{
			matchRoutes.POST("", matchHandler.CreateMatch)
			matchRoutes.GET("/:id", matchHandler.GetMatch)
			matchRoutes.GET("/code/:code", matchHandler.GetMatchByCode)
			matchRoutes.POST("/join", matchHandler.JoinMatch)
			matchRoutes.POST("/:id/team", matchHandler.SetTeam)
			matchRoutes.POST("/:id/ready", matchHandler.SetReady)
			matchRoutes.POST("/:id/heartbeat", matchHandler.Heartbeat)
			matchRoutes.POST("/:id/cleanup", matchHandler.CleanupStale)
			matchRoutes.PUT("/:id/settings", matchHandler.UpdateSettings)
			matchRoutes.POST("/:id/start", matchHandler.StartMatch)
			matchRoutes.POST("/:id/words", matchHandler.SubmitWord)
			matchRoutes.POST("/:id/end", matchHandler.EndMatch)
			matchRoutes.POST("/:id/reset", matchHandler.ResetMatch)
		}

		// The event stream and the leave beacon can't always carry an
		// Authorization header, so they also accept a ?token= query param.
		sseRoutes := apiV1.Group("/matches")
		sseRoutes.Use(auth.SSEAuthMiddleware())
		{
			sseRoutes.GET("/:id/events", eventsHandler.StreamMatchEvents)
			sseRoutes.POST("/:id/leave", matchHandler.LeaveMatch)
		}

		// Leaderboard routes (protected)
		leaderboardRoutes := apiV1.Group("/leaderboard")
		leaderboardRoutes.Use(auth.AuthMiddleware())
		{
			leaderboardRoutes.GET("/solo/rank/:runId", leaderboardHandler.GetSoloRank)
		}
	}

	port := config.AppConfig.ServerPort
	logger.WithField("port", port).Info("Starting server")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
