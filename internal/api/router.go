package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moveon/moveon-backend-go/internal/config"
	"github.com/moveon/moveon-backend-go/internal/handler"
	"github.com/moveon/moveon-backend-go/internal/middleware"
	"github.com/moveon/moveon-backend-go/internal/repository"
	"github.com/moveon/moveon-backend-go/internal/service"
	"github.com/moveon/moveon-backend-go/internal/session"
)

// SetupRouter wires repositories, services, and handlers onto a gin engine
func SetupRouter(cfg *config.Config, db *sql.DB) *gin.Engine {
	userRepo := repository.NewUserRepository(db)
	walkRepo := repository.NewWalkRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	sessions := session.NewStore()
	walkService := service.NewWalkService(userRepo, walkRepo, sessions)
	userService := service.NewUserService(userRepo, statsRepo)
	taskService := service.NewTaskService(taskRepo, userRepo)

	walkHandler := handler.NewWalkHandler(walkService)
	userHandler := handler.NewUserHandler(userService, cfg.JWTSecret)
	taskHandler := handler.NewTaskHandler(taskService)

	r := gin.New()
	r.Use(middleware.Logger(), gin.Recovery())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "MoveOn API is running",
		})
	})

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/token", userHandler.Token)
	}

	if cfg.RequireAuth {
		api.Use(middleware.Auth(cfg.JWTSecret))
	}

	walks := api.Group("/walks")
	{
		// Sample updates arrive at ~1 Hz per client; the limiter caps runaway
		// senders without touching honest ones.
		walks.POST("/update", middleware.RateLimit(180, time.Minute), walkHandler.Update)
		walks.POST("/start", walkHandler.Start)
		walks.POST("/finish", walkHandler.Finish)
		walks.POST("/stop", walkHandler.Stop)
		walks.GET("/history/:telegram_id", walkHandler.History)
	}

	users := api.Group("/users")
	{
		users.GET("/:telegram_id/energy", userHandler.Energy)
		users.GET("/:telegram_id/statistics", userHandler.Statistics)
		users.POST("/daily-bonus", userHandler.DailyBonus)
		users.POST("/upgrade", userHandler.Upgrade)
	}

	tasks := api.Group("/tasks")
	{
		tasks.GET("/:telegram_id", taskHandler.List)
		tasks.POST("/complete", taskHandler.Complete)
	}

	return r
}
