package http

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/placewise/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *logrus.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		suggestions := v1.Group("/suggestions")
		{
			suggestions.POST("/search", handler.SearchSuggestions)
			suggestions.POST("/reconfigure", handler.Reconfigure)
		}

		preferences := v1.Group("/preferences")
		{
			preferences.GET("/min-keyword-length", handler.GetMinKeywordLength)
			preferences.PUT("/min-keyword-length", handler.SetMinKeywordLength)
			preferences.DELETE("/min-keyword-length", handler.ClearMinKeywordLength)
		}
	}

	return router
}
