package http

import (
	"github.com/gin-gonic/gin"
	"github.com/marketlens/backend/config"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		extract := v1.Group("/extract")
		{
			extract.POST("/detail", handler.ExtractDetail)
			extract.POST("/listing", handler.ExtractListing)
		}

		v1.POST("/products/enrich", handler.EnrichProducts)
		v1.POST("/classify/sales", handler.ClassifySales)
	}

	return router
}
