package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/docforge/docforge-backend/internal/handlers"
	"github.com/docforge/docforge-backend/internal/middleware"
)

type RouterConfig struct {
	TemplateHandler    *handlers.TemplateHandler
	GenerationHandler  *handlers.GenerationHandler
	IdentityMiddleware *middleware.IdentityMiddleware
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Actor"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.IdentityMiddleware.Resolve())
	{
		// Templates
		api.POST("/templates", cfg.TemplateHandler.Upload)
		api.GET("/templates", cfg.TemplateHandler.List)
		api.GET("/templates/:id", cfg.TemplateHandler.Get)
		api.PUT("/templates/:id", cfg.TemplateHandler.Update)
		api.PUT("/templates/:id/file", cfg.TemplateHandler.ReplaceFile)
		api.DELETE("/templates/:id", cfg.TemplateHandler.Delete)
		api.GET("/templates/:id/download", cfg.TemplateHandler.Download)

		// Generations
		api.POST("/generations", cfg.GenerationHandler.Generate)
		api.GET("/generations", cfg.GenerationHandler.List)
		api.GET("/generations/:id", cfg.GenerationHandler.Get)
		api.GET("/generations/:id/download", cfg.GenerationHandler.Download)
		api.DELETE("/generations/:id", cfg.GenerationHandler.Delete)
	}

	return router
}
