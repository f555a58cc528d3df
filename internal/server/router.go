package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/wellbeam/burnout-backend/internal/handlers"
	"github.com/wellbeam/burnout-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName       string
	AllowOrigins      []string
	UserHandler       *handlers.UserHandler
	AssessmentHandler *handlers.AssessmentHandler
	DashboardHandler  *handlers.DashboardHandler
	AuthMiddleware    *middleware.AuthMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware(cfg.ServiceName))

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	users := router.Group("/users")
	{
		users.POST("/register", cfg.UserHandler.Register)
		users.POST("/login", cfg.UserHandler.Login)
		users.POST("/password-recover", cfg.UserHandler.RecoverPassword)
		users.POST("/password-reset", cfg.UserHandler.ResetPassword)
	}

	// Protected
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.POST("/refresh", cfg.UserHandler.Refresh)
	protected.POST("/logout", cfg.UserHandler.Logout)
	protected.GET("/users/me", cfg.UserHandler.GetMe)
	protected.PUT("/users/profile", cfg.UserHandler.EditProfile)
	protected.POST("/assessments", cfg.AssessmentHandler.Submit)
	protected.GET("/dashboard", cfg.DashboardHandler.Get)

	return router
}
