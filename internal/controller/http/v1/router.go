package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"png_compression/config"
	"png_compression/entity"
	tmetric "png_compression/internal/telemetry/metric"
	"png_compression/pkg/logger"
)

const traceName = "http-v1"

// NewRouter -.
func NewRouter(handler *gin.Engine, l logger.Interface, cu entity.CompressionUsecase, cfg *config.Config, metrics *tmetric.Collector) {
	// Options
	handler.Use(requestID())
	handler.Use(requestLogger(l, metrics))
	handler.Use(gin.Recovery())

	// Swagger
	if cfg.Server.Swagger {
		handler.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Prometheus metrics
	if cfg.Server.MetricsPath != "" {
		handler.GET(cfg.Server.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	// Health
	service := cfg.App.Name
	handler.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "service": service})
	})

	// Routers
	newCompressionRoutes(&handler.RouterGroup, cu, l, cfg)
}
