package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Message store
	MessagesAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groupchat_messages_appended_total",
			Help: "Total messages appended to a group log",
		},
	)

	AppendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "groupchat_append_duration_seconds",
			Help:    "Time spent holding the group append lock",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
		},
	)

	// Tracker
	ReceiptsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupchat_receipts_recorded_total",
			Help: "Receipts that grew a delivered or read set",
		},
		[]string{"kind"}, // "delivered" or "read"
	)

	// Hub
	Subscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "groupchat_subscribers",
			Help: "Live subscriptions currently registered",
		},
	)

	SubscribersLagging = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "groupchat_subscribers_lagging_total",
			Help: "Subscriptions terminated because their inbox overflowed",
		},
	)

	// Dispatcher
	NotificationsPushed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupchat_notifications_total",
			Help: "Push attempts per outcome",
		},
		[]string{"platform", "outcome"}, // outcome: "sent" or "failed"
	)

	QueueDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupchat_queue_dropped_total",
			Help: "Messages dropped because a worker queue was full",
		},
		[]string{"queue"},
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "groupchat_queue_depth",
			Help: "Messages waiting in a worker queue",
		},
		[]string{"queue"},
	)

	// Process
	ProcessRSSBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "groupchat_process_rss_bytes",
			Help: "Resident set size sampled by the telemetry worker",
		},
	)

	ProcessCPUPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "groupchat_process_cpu_percent",
			Help: "CPU usage sampled by the telemetry worker",
		},
	)

	WorkerRestarts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "groupchat_worker_restarts_total",
			Help: "Workers restarted by the supervisor after a panic",
		},
		[]string{"worker"},
	)
)
