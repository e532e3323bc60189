package observability

import (
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// MonitoringStats is the latest snapshot shown on the debug page.
type MonitoringStats struct {
	Groups        int     `json:"groups"`
	Subscribers   int     `json:"subscribers"`
	DispatchQueue int     `json:"dispatch_queue"`
	IndexQueue    int     `json:"index_queue"`
	RSSMb         uint64  `json:"rss_mb"`
	CPUPercent    float64 `json:"cpu_percent"`
	AllocMemMb    uint64  `json:"alloc_mem_mb"`
	NumGC         uint32  `json:"num_gc"`
	NumGoroutine  int     `json:"num_goroutine"`
	UpdatedAt     string  `json:"updated_at"`
}

// MonitoringManager keeps the last telemetry sample for readers outside the worker.
type MonitoringManager struct {
	log         *slog.Logger
	mu          sync.RWMutex
	latestStats MonitoringStats
}

func NewMonitoringManager(log *slog.Logger) *MonitoringManager {
	return &MonitoringManager{log: log}
}

// Update stores a sample, completing it with the Go runtime figures.
func (mm *MonitoringManager) Update(stats MonitoringStats) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	stats.AllocMemMb = m.Alloc / 1024 / 1024
	stats.NumGC = m.NumGC
	stats.NumGoroutine = runtime.NumGoroutine()
	stats.UpdatedAt = time.Now().Format("15:04:05")

	mm.mu.Lock()
	mm.latestStats = stats
	mm.mu.Unlock()

	mm.log.Debug("Stats updated",
		"groups", stats.Groups,
		"subscribers", stats.Subscribers,
		"dispatch_queue", stats.DispatchQueue,
		"mem_mb", stats.AllocMemMb,
	)
}

func (mm *MonitoringManager) GetLatest() MonitoringStats {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.latestStats
}

// AsMap flattens the latest sample for the debug page template.
func (mm *MonitoringManager) AsMap() map[string]any {
	s := mm.GetLatest()
	return map[string]any{
		"groups":         s.Groups,
		"subscribers":    s.Subscribers,
		"dispatch_queue": s.DispatchQueue,
		"index_queue":    s.IndexQueue,
		"rss_mb":         s.RSSMb,
		"cpu_percent":    s.CPUPercent,
		"alloc_mem_mb":   s.AllocMemMb,
		"num_gc":         s.NumGC,
		"num_goroutine":  s.NumGoroutine,
		"updated_at":     s.UpdatedAt,
	}
}
