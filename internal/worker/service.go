package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"giggle-glide/internal/cache"
	"giggle-glide/internal/jokes"
	"giggle-glide/internal/preferences"
	"giggle-glide/internal/ratelimit"
	"giggle-glide/internal/workers"

	"gorm.io/gorm"
)

// Metric retention and scheduling defaults
const (
	metricsSweepInterval = 1 * time.Hour
	metricsActiveWindow  = 24 * time.Hour
	metricsPeriodDays    = 7
	metricsRetentionDays = 90

	ratingsRefreshInterval = 1 * time.Hour
	cacheSweepInterval     = 5 * time.Minute
	cleanupInterval        = 24 * time.Hour
	limiterIdleTimeout     = 1 * time.Hour
)

// WorkerService manages background workers for the application
type WorkerService struct {
	prefService   *preferences.Service
	jokeService   *jokes.Service
	cache         *cache.Cache
	limiter       *ratelimit.KeyedLimiter
	metricsWorker *workers.MetricsSweepWorker
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	running       bool
	startedAt     time.Time
	mu            sync.RWMutex
}

// NewWorkerService creates a new worker service
func NewWorkerService(db *gorm.DB, appCache *cache.Cache, limiter *ratelimit.KeyedLimiter) *WorkerService {
	ctx, cancel := context.WithCancel(context.Background())

	prefService := preferences.NewService(db)
	jokeService := jokes.NewService(db)
	metricsWorker := workers.NewMetricsSweepWorker(prefService, metricsSweepInterval, metricsActiveWindow, metricsPeriodDays)

	return &WorkerService{
		prefService:   prefService,
		jokeService:   jokeService,
		cache:         appCache,
		limiter:       limiter,
		metricsWorker: metricsWorker,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start starts all background workers
func (ws *WorkerService) Start() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.running {
		return nil
	}

	log.Println("Starting background workers...")

	ws.wg.Add(1)
	go func() {
		defer ws.wg.Done()
		ws.runMetricsSweepWorker()
	}()

	ws.wg.Add(1)
	go func() {
		defer ws.wg.Done()
		ws.runPeriodicTasks()
	}()

	ws.running = true
	ws.startedAt = time.Now()
	log.Println("Background workers started successfully")

	return nil
}

// Stop stops all background workers
func (ws *WorkerService) Stop() {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if !ws.running {
		return
	}

	log.Println("Stopping background workers...")
	ws.cancel()
	ws.wg.Wait()
	ws.running = false
	log.Println("Background workers stopped")
}

// IsRunning returns whether the worker service is currently running
func (ws *WorkerService) IsRunning() bool {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.running
}

// runMetricsSweepWorker runs the periodic performance metrics sweep
func (ws *WorkerService) runMetricsSweepWorker() {
	ws.metricsWorker.Start(ws.ctx)

	<-ws.ctx.Done()
	ws.metricsWorker.Stop()
}

// runPeriodicTasks runs periodic maintenance tasks
func (ws *WorkerService) runPeriodicTasks() {
	ratingsTicker := time.NewTicker(ratingsRefreshInterval)
	cacheTicker := time.NewTicker(cacheSweepInterval)
	cleanupTicker := time.NewTicker(cleanupInterval)

	defer ratingsTicker.Stop()
	defer cacheTicker.Stop()
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ws.ctx.Done():
			return

		case <-ratingsTicker.C:
			ws.refreshJokeRatings()

		case <-cacheTicker.C:
			ws.sweepCaches()

		case <-cleanupTicker.C:
			ws.runCleanupTasks()
		}
	}
}

// refreshJokeRatings recomputes derived ratings from interaction counters
func (ws *WorkerService) refreshJokeRatings() {
	updated, err := ws.jokeService.UpdateJokeRatings()
	if err != nil {
		log.Printf("Failed to refresh joke ratings: %v", err)
		return
	}
	if updated > 0 {
		log.Printf("Refreshed ratings for %d jokes", updated)
	}
}

// sweepCaches evicts expired cache entries and idle rate limiter buckets
func (ws *WorkerService) sweepCaches() {
	if ws.cache != nil {
		ws.cache.ClearExpired()
	}
	if ws.limiter != nil {
		ws.limiter.Cleanup(limiterIdleTimeout)
	}
}

// runCleanupTasks performs daily retention cleanup
func (ws *WorkerService) runCleanupTasks() {
	log.Println("Running cleanup tasks...")

	purged, err := ws.prefService.PurgeOldMetrics(metricsRetentionDays)
	if err != nil {
		log.Printf("Failed to purge old metrics: %v", err)
	} else if purged > 0 {
		log.Printf("Purged %d metrics older than %d days", purged, metricsRetentionDays)
	}

	log.Println("Cleanup tasks completed")
}

// GetStatus returns the current status of the worker service
func (ws *WorkerService) GetStatus() map[string]interface{} {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	status := map[string]interface{}{
		"running":        ws.running,
		"periodic_tasks": true,
	}
	if ws.running {
		status["uptime"] = time.Since(ws.startedAt).String()
	}
	if ws.metricsWorker != nil {
		status["metrics_sweep"] = ws.metricsWorker.GetStats()
	}

	return status
}
