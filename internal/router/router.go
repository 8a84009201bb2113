package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stride-dev/stride/internal/handlers"
	"github.com/stride-dev/stride/internal/middleware"
	"github.com/stride-dev/stride/internal/store"
)

func New(authHandler *handlers.AuthHandler, goalHandler *handlers.GoalHandler, users *store.UserStore, origins []string) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", handlers.HealthCheck)

	r.GET("/register", authHandler.RegisterForm)
	r.POST("/register", authHandler.Register)
	r.GET("/login", authHandler.LoginForm)
	r.POST("/login", authHandler.Login)

	protected := r.Group("/", middleware.RequireAuth(users))
	{
		protected.GET("", goalHandler.List)
		protected.POST("", goalHandler.Create)
		protected.POST("/complete_task", goalHandler.CompleteTask)
		protected.POST("/delete", goalHandler.Delete)
		protected.GET("/logout", authHandler.Logout)
	}

	return r
}
