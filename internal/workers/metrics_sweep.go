package workers

import (
	"context"
	"log"
	"time"

	"giggle-glide/internal/preferences"
)

// MetricsSweepWorker periodically snapshots recommendation performance
// metrics (CTR, skip rate, diversity, exploration) for recently active users
type MetricsSweepWorker struct {
	prefService  *preferences.Service
	interval     time.Duration
	activeWindow time.Duration
	periodDays   int
	ticker       *time.Ticker
	stopChan     chan bool
}

// NewMetricsSweepWorker creates a metrics sweep worker. Users active within
// activeWindow of each sweep get a fresh metric snapshot over periodDays.
func NewMetricsSweepWorker(prefService *preferences.Service, interval, activeWindow time.Duration, periodDays int) *MetricsSweepWorker {
	return &MetricsSweepWorker{
		prefService:  prefService,
		interval:     interval,
		activeWindow: activeWindow,
		periodDays:   periodDays,
		stopChan:     make(chan bool),
	}
}

// Start begins the periodic sweep process
func (w *MetricsSweepWorker) Start(ctx context.Context) {
	w.ticker = time.NewTicker(w.interval)

	log.Printf("Starting metrics sweep worker (every %v, active window %v)", w.interval, w.activeWindow)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopChan:
				return
			case <-w.ticker.C:
				w.sweep()
			}
		}
	}()
}

// Stop stops the worker
func (w *MetricsSweepWorker) Stop() {
	if w.ticker != nil {
		w.ticker.Stop()
	}
	close(w.stopChan)
	log.Printf("Metrics sweep worker stopped")
}

func (w *MetricsSweepWorker) sweep() {
	since := time.Now().Add(-w.activeWindow)
	userIDs, err := w.prefService.GetRecentlyActiveUsers(since)
	if err != nil {
		log.Printf("Metrics sweep: failed to list active users: %v", err)
		return
	}

	recorded := 0
	for _, userID := range userIDs {
		if err := w.prefService.RecordPerformanceMetrics(userID, w.periodDays); err != nil {
			log.Printf("Metrics sweep: failed to record metrics for user %s: %v", userID, err)
			continue
		}
		recorded++
	}

	if recorded > 0 {
		log.Printf("Metrics sweep: recorded metrics for %d of %d active users", recorded, len(userIDs))
	}
}

// SweepStats holds a snapshot of sweep scheduling state
type SweepStats struct {
	Interval     time.Duration `json:"interval"`
	ActiveWindow time.Duration `json:"active_window"`
	PeriodDays   int           `json:"period_days"`
	LastCheck    time.Time     `json:"last_check"`
}

// GetStats returns the worker's current configuration
func (w *MetricsSweepWorker) GetStats() *SweepStats {
	return &SweepStats{
		Interval:     w.interval,
		ActiveWindow: w.activeWindow,
		PeriodDays:   w.periodDays,
		LastCheck:    time.Now(),
	}
}
