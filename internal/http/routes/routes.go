package routes

import (
	"net/http"

	"github.com/eleblu/bluswipe/internal/http/handlers"
	"github.com/eleblu/bluswipe/internal/http/middleware"
	"github.com/eleblu/bluswipe/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Router struct {
	handler *handlers.Handler
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewRouter(
	handler *handlers.Handler,
	metrics *metrics.Metrics,
	logger *zap.Logger,
) *Router {
	return &Router{
		handler: handler,
		metrics: metrics,
		logger:  logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.Recovery(r.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())
	router.Use(r.metrics.HTTPMiddleware())

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "BlusWipe API is running",
		})
	})

	router.GET("/health", r.handler.Health)
	router.GET("/metrics", gin.WrapH(r.metrics.Handler()))

	api := router.Group("/api")
	{
		api.POST("/remove-background", r.handler.RemoveBackground)
		api.POST("/add-background", r.handler.AddBackground)
		api.POST("/batch", r.handler.Batch)
		api.POST("/batch/async", r.handler.BatchAsync)
		api.GET("/jobs/:id", r.handler.JobStatus)
		api.GET("/download/:filename", r.handler.Download)
		api.GET("/models", r.handler.Models)
		api.GET("/stats", r.handler.Stats)
	}

	return router
}
