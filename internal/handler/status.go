package handler

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"tg-filedrop/internal/logger"
)

// Status counts processed updates
type Status struct {
	messages   atomic.Int64
	callbacks  atomic.Int64
	deliveries atomic.Int64
	broadcasts atomic.Int64
	errors     atomic.Int64
	startTime  time.Time
}

// NewStatus starts the uptime clock
func NewStatus() *Status {
	return &Status{startTime: time.Now()}
}

// ProcessingStats is a snapshot of the counters and runtime figures
type ProcessingStats struct {
	UptimeSeconds   int64  `json:"uptime_seconds"`
	TotalMessages   int64  `json:"total_messages"`
	TotalCallbacks  int64  `json:"total_callback_queries"`
	TotalDeliveries int64  `json:"total_deliveries"`
	TotalBroadcasts int64  `json:"total_broadcasts"`
	TotalErrors     int64  `json:"total_errors"`
	MemoryUsageMB   uint64 `json:"memory_usage_mb"`
	SysMemoryMB     uint64 `json:"sys_memory_mb"`
	GCRuns          uint32 `json:"gc_runs"`
	Goroutines      int    `json:"goroutines"`
}

// Snapshot reads the counters
func (s *Status) Snapshot() ProcessingStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return ProcessingStats{
		UptimeSeconds:   int64(time.Since(s.startTime).Seconds()),
		TotalMessages:   s.messages.Load(),
		TotalCallbacks:  s.callbacks.Load(),
		TotalDeliveries: s.deliveries.Load(),
		TotalBroadcasts: s.broadcasts.Load(),
		TotalErrors:     s.errors.Load(),
		MemoryUsageMB:   bToMb(m.Alloc),
		SysMemoryMB:     bToMb(m.Sys),
		GCRuns:          m.NumGC,
		Goroutines:      runtime.NumGoroutine(),
	}
}

// LogPeriodically writes a snapshot every interval until ctx ends
func (s *Status) LogPeriodically(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := s.Snapshot()
			logger.Infof("Processing stats: %+v", stats)

			if stats.TotalMessages > 0 && float64(stats.TotalErrors)/float64(stats.TotalMessages) > 0.1 {
				logger.Warningf("High error rate: %.2f%% (%d errors out of %d messages)",
					float64(stats.TotalErrors)/float64(stats.TotalMessages)*100, stats.TotalErrors, stats.TotalMessages)
			}
		}
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}

// String renders the snapshot for the debug endpoint
func (p ProcessingStats) String() string {
	return fmt.Sprintf(`=== tg-filedrop processing status ===
Uptime: %d seconds
Messages Processed: %d
Callback Queries: %d
Deliveries: %d
Broadcasts: %d
Errors: %d
Memory Usage: %d MB
System Memory: %d MB
GC Runs: %d
Goroutines: %d`,
		p.UptimeSeconds,
		p.TotalMessages,
		p.TotalCallbacks,
		p.TotalDeliveries,
		p.TotalBroadcasts,
		p.TotalErrors,
		p.MemoryUsageMB,
		p.SysMemoryMB,
		p.GCRuns,
		p.Goroutines,
	)
}
