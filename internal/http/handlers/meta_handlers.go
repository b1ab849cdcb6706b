package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/eleblu/bluswipe/internal/models"
	"github.com/eleblu/bluswipe/internal/rembg"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Health reports readiness plus per-dependency status. Optional
// dependencies report "disabled" and do not degrade the overall status.
func (h *Handler) Health(c *gin.Context) {
	services := h.storage.HealthCheck(c.Request.Context())
	if h.queue != nil {
		services["queue"] = h.queue.HealthCheck()
	} else {
		services["queue"] = "disabled"
	}

	overall := "healthy"
	for _, status := range services {
		if strings.HasPrefix(status, "unhealthy") {
			overall = "unhealthy"
			break
		}
	}

	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.HealthCheck{
		Status:          overall,
		ModelLoaded:     h.remover.Ready(),
		Version:         apiVersion,
		AvailableModels: rembg.AvailableModels(),
		Services:        services,
		Timestamp:       time.Now(),
	})
}

// Models lists the selectable segmentation models.
func (h *Handler) Models(c *gin.Context) {
	if !h.remover.Ready() {
		h.respondError(c, http.StatusServiceUnavailable, "Service not ready")
		return
	}

	c.JSON(http.StatusOK, models.ModelsResponse{
		Models:       rembg.AvailableModels(),
		CurrentModel: h.remover.CurrentModel(),
		Descriptions: rembg.ModelDescriptions(),
	})
}

// Stats returns cache and queue statistics
func (h *Handler) Stats(c *gin.Context) {
	stats := map[string]interface{}{
		"timestamp": time.Now(),
	}

	if h.queue != nil {
		queueStats, err := h.queue.Stats()
		if err != nil {
			h.logger.Error("Failed to get queue stats", zap.Error(err))
		} else {
			stats["queue"] = queueStats
		}
	}

	cacheStats, err := h.storage.GetCacheStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get cache stats", zap.Error(err))
	} else {
		stats["cache"] = cacheStats
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    stats,
	})
}
