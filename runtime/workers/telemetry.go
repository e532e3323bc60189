package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"group-chat/observability"
)

// Gauge is anything able to report a current depth.
type Gauge interface {
	Len() int
}

// TelemetryWorker samples the process and the live state of the server
// every interval and publishes it as prometheus gauges and a debug snapshot.
type TelemetryWorker struct {
	log           *slog.Logger
	interval      time.Duration
	subscriptions func() (groups, subscribers int)
	dispatchQueue Gauge
	indexQueue    Gauge
	monitoring    *observability.MonitoringManager
}

func NewTelemetryWorker(
	log *slog.Logger,
	interval time.Duration,
	subscriptions func() (groups, subscribers int),
	dispatchQueue, indexQueue Gauge,
	monitoring *observability.MonitoringManager,
) *TelemetryWorker {
	return &TelemetryWorker{
		log:           log,
		interval:      interval,
		subscriptions: subscriptions,
		dispatchQueue: dispatchQueue,
		indexQueue:    indexQueue,
		monitoring:    monitoring,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sample(p)
		}
	}
}

func (w *TelemetryWorker) sample(p *process.Process) {
	stats := observability.MonitoringStats{
		DispatchQueue: w.dispatchQueue.Len(),
		IndexQueue:    w.indexQueue.Len(),
	}
	stats.Groups, stats.Subscribers = w.subscriptions()

	rss, cpu, err := selfStats(p)
	if err != nil {
		w.log.Error("Failed to collect self stats", "error", err)
	} else {
		stats.RSSMb = rss / 1024 / 1024
		stats.CPUPercent = cpu
		observability.ProcessRSSBytes.Set(float64(rss))
		observability.ProcessCPUPercent.Set(cpu)
	}
	observability.QueueDepth.WithLabelValues("dispatch").Set(float64(stats.DispatchQueue))
	observability.QueueDepth.WithLabelValues("index").Set(float64(stats.IndexQueue))
	w.monitoring.Update(stats)
}

// selfStats retrieves the resident memory and cpu usage of the process.
func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
