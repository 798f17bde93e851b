package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"giggle-glide/internal/aijokes"
	"giggle-glide/internal/auth"
	"giggle-glide/internal/cache"
	"giggle-glide/internal/database"
	"giggle-glide/internal/handlers"
	"giggle-glide/internal/jokes"
	"giggle-glide/internal/preferences"
	"giggle-glide/internal/ratelimit"
	"giggle-glide/internal/recommend"
	"giggle-glide/internal/tags"
	"giggle-glide/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load database configuration
	dbConfig := database.LoadConfig()

	// Connect to database
	if err := database.Connect(dbConfig); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Cache backend (Redis when configured, in-memory otherwise)
	appCache := cache.NewFromEnv()
	defer appCache.Close()

	// Per-client rate limiter
	limiter := ratelimit.New(10, 20)

	// Initialize and start background workers
	workerService := worker.NewWorkerService(database.DB, appCache, limiter)
	if err := workerService.Start(); err != nil {
		log.Fatal("Failed to start background workers:", err)
	}

	// Setup graceful shutdown
	setupGracefulShutdown(workerService, appCache)

	// Setup HTTP server
	setupServer(workerService, appCache, limiter)
}

func setupGracefulShutdown(workerService *worker.WorkerService, appCache *cache.Cache) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Received shutdown signal, gracefully shutting down...")

		workerService.Stop()
		appCache.Close()
		database.Close()

		log.Println("Shutdown complete")
		os.Exit(0)
	}()
}

func setupServer(workerService *worker.WorkerService, appCache *cache.Cache, limiter *ratelimit.KeyedLimiter) {
	// Set Gin mode based on environment
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Domain services
	tagService := tags.NewService(database.DB)
	prefService := preferences.NewService(database.DB)
	jokeService := jokes.NewService(database.DB)

	// AI generation is optional; without an API key the recommender falls
	// back to trending content only
	var generator recommend.JokeGenerator
	aiService, err := aijokes.NewServiceFromEnv(database.DB)
	if err != nil {
		if errors.Is(err, aijokes.ErrNoAPIKey) {
			log.Println("AI joke generation disabled: no API key configured")
		} else {
			log.Printf("AI joke generation disabled: %v", err)
		}
	} else {
		generator = aiService
	}

	recommender := recommend.NewService(database.DB, tagService, prefService, jokeService, appCache, generator, nil)

	tokens := auth.NewManagerFromEnv()

	// Initialize handlers
	recHandler := handlers.NewRecommendationHandler(recommender, appCache)
	tagHandler := handlers.NewTagHandler(tagService, appCache)
	jokeHandler := handlers.NewJokeHandler(jokeService, tagService, appCache)
	userHandler := handlers.NewUserHandler(database.DB, tokens)
	healthHandler := handlers.NewHealthHandler(database.DB, appCache, workerService)
	docsHandler := handlers.NewDocsHandler()

	// Health check
	r.GET("/health", healthHandler.HealthCheck)

	// Serve Markdown documentation as HTML
	r.GET("/doc/:doc", docsHandler.ServeMarkdownAsHTML)

	// Registration is the only unauthenticated API route
	r.POST("/api/users/register", userHandler.Register)

	// API routes
	api := r.Group("/api", tokens.Middleware(), limiter.Middleware())
	{
		users := api.Group("/users")
		{
			users.GET("/me", userHandler.GetProfile)
			users.PATCH("/me", userHandler.UpdateSettings)
		}

		personalization := api.Group("/personalization")
		{
			personalization.GET("/recommendations", recHandler.GetRecommendations)
			personalization.POST("/recommendations", recHandler.GetRecommendations)
			personalization.POST("/feedback", recHandler.SubmitFeedback)
			personalization.GET("/preferences", recHandler.GetPreferenceAnalysis)
			personalization.GET("/preferences/analysis", recHandler.GetPreferenceAnalysis)
			personalization.GET("/explanation/:jokeId", recHandler.GetExplanation)
			personalization.POST("/cold-start", recHandler.ColdStart)
			personalization.GET("/metrics", recHandler.GetMetrics)
			personalization.GET("/trending", jokeHandler.GetTrending)
			personalization.DELETE("/cache", recHandler.InvalidateCache)

			personalization.GET("/tags", tagHandler.GetTags)
			personalization.GET("/tags/popularity", tagHandler.GetTagPopularity)
			personalization.GET("/tags/:tagId/similar", tagHandler.GetSimilarTags)
			personalization.POST("/jokes/:jokeId/tags", tagHandler.TagJoke)
			personalization.DELETE("/jokes/:jokeId/tags/:tagId", tagHandler.UntagJoke)
		}

		jokesGroup := api.Group("/jokes")
		{
			jokesGroup.GET("/trending", jokeHandler.GetTrending)
			jokesGroup.GET("/search", jokeHandler.SearchJokes)
			jokesGroup.POST("", jokeHandler.CreateJoke)
			jokesGroup.GET("/favorites", jokeHandler.GetFavorites)
			jokesGroup.GET("/:jokeId", jokeHandler.GetJoke)
			jokesGroup.POST("/:jokeId/favorite", jokeHandler.AddFavorite)
			jokesGroup.DELETE("/:jokeId/favorite", jokeHandler.RemoveFavorite)
		}

		workerGroup := api.Group("/worker")
		{
			workerGroup.GET("/status", healthHandler.WorkerStatus)
		}
	}

	// Get port from environment or default to 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
