package handlers

import (
	"net/http"

	"giggle-glide/internal/cache"
	"giggle-glide/internal/worker"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthHandler reports service health and worker status
type HealthHandler struct {
	db      *gorm.DB
	cache   *cache.Cache
	workers *worker.WorkerService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB, appCache *cache.Cache, workers *worker.WorkerService) *HealthHandler {
	return &HealthHandler{db: db, cache: appCache, workers: workers}
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	status := http.StatusOK
	overall := "healthy"
	dbStatus := "ok"

	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = err.Error()
		status = http.StatusServiceUnavailable
		overall = "degraded"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = err.Error()
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":   overall,
		"database": dbStatus,
		"cache":    h.cache.Stats(c.Request.Context()),
		"workers":  h.workers.IsRunning(),
	})
}

// WorkerStatus handles GET /api/worker/status
func (h *HealthHandler) WorkerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.workers.GetStatus())
}
