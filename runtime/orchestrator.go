// Package runtime handles event propagation, live subscriptions and the
// background workers. It wires the system without containing business rules.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"group-chat/contract"
	"group-chat/domain/event"
	"group-chat/infrastructure/storage"
	"group-chat/moderation"
	"group-chat/observability"
	"group-chat/runtime/workers"
	"group-chat/sink"
)

// Directory is everything the notification workers read about people.
type Directory interface {
	contract.MembershipDirectory
	contract.IdentityProvider
	contract.EndpointRegistry
}

type OrchestratorConfig struct {
	NotificationWorkers int
	PushTimeout         time.Duration
	TelemetryInterval   time.Duration
	CensoredChar        rune
}

// Orchestrator publishes committed events to every sink and supervises the
// workers draining the side queues. Publish runs on the append path: every
// sink it calls must return without blocking.
type Orchestrator struct {
	mu            sync.RWMutex
	log           *slog.Logger
	cfg           OrchestratorConfig
	sinks         []contract.EventSink
	supervisor    contract.ISupervisor
	hub           *Hub
	dispatchQueue *sink.QueueSink
	indexQueue    *sink.QueueSink
	directory     Directory
	transport     contract.PushTransport
	index         storage.ISearchIndex
	monitoring    *observability.MonitoringManager
}

func NewOrchestrator(
	log *slog.Logger,
	cfg OrchestratorConfig,
	supervisor contract.ISupervisor,
	dispatchQueue, indexQueue *sink.QueueSink,
	directory Directory,
	transport contract.PushTransport,
	index storage.ISearchIndex,
	monitoring *observability.MonitoringManager,
) *Orchestrator {
	if cfg.NotificationWorkers <= 0 {
		cfg.NotificationWorkers = 1
	}
	if cfg.PushTimeout <= 0 {
		cfg.PushTimeout = 5 * time.Second
	}
	if cfg.TelemetryInterval <= 0 {
		cfg.TelemetryInterval = 10 * time.Second
	}
	if cfg.CensoredChar == 0 {
		cfg.CensoredChar = '*'
	}
	return &Orchestrator{
		log:           log,
		cfg:           cfg,
		supervisor:    supervisor,
		dispatchQueue: dispatchQueue,
		indexQueue:    indexQueue,
		directory:     directory,
		transport:     transport,
		index:         index,
		monitoring:    monitoring,
	}
}

// Add registers sinks receiving every published event, in registration order.
func (o *Orchestrator) Add(sinks ...contract.EventSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sinks = append(o.sinks, sinks...)
}

// AttachHub registers the hub as a sink and as the source of subscription telemetry.
func (o *Orchestrator) AttachHub(hub *Hub) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hub = hub
	o.sinks = append(o.sinks, hub)
}

// Publish hands the event to every sink. A failing sink is logged and
// never prevents the others from receiving the event.
func (o *Orchestrator) Publish(ctx context.Context, e event.DomainEvent) {
	o.mu.RLock()
	sinks := o.sinks
	o.mu.RUnlock()

	for _, s := range sinks {
		if err := s.Consume(ctx, e); err != nil {
			o.log.Warn("Sink rejected event",
				"sink", fmt.Sprintf("%T", s), "group", e.GroupID(), "seq", e.Sequence(), "error", err)
		}
	}
}

// Start prepares the workers then blocks running them until ctx ends or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) error {
	masker, err := o.prepareModeration()
	if err != nil {
		return err
	}

	o.mu.Lock()
	for i := 0; i < o.cfg.NotificationWorkers; i++ {
		o.supervisor.Add(workers.NewNotificationWorker(
			o.log, o.dispatchQueue.Messages(),
			o.directory, o.directory, o.directory,
			o.transport, masker, o.cfg.PushTimeout,
		))
	}
	if o.index != nil {
		o.supervisor.Add(workers.NewIndexWorker(o.log, o.indexQueue.Messages(), o.index))
	}
	if o.monitoring != nil {
		o.supervisor.Add(workers.NewTelemetryWorker(
			o.log, o.cfg.TelemetryInterval, o.subscriptions,
			o.dispatchQueue, o.indexQueue, o.monitoring,
		))
	}
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers",
		"notification_workers", o.cfg.NotificationWorkers)
	o.supervisor.Run(ctx)
	return nil
}

// prepareModeration loads the embedded dictionaries and builds the preview masker.
func (o *Orchestrator) prepareModeration() (*moderation.Moderator, error) {
	data, err := moderation.LoadEmbedded()
	if err != nil {
		return nil, err
	}
	o.log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	o.log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	return moderation.NewModerator(data.Words, o.cfg.CensoredChar, o.log)
}

func (o *Orchestrator) subscriptions() (int, int) {
	o.mu.RLock()
	hub := o.hub
	o.mu.RUnlock()
	if hub == nil {
		return 0, 0
	}
	stats := hub.Stats()
	return stats.Groups, stats.Subscribers
}

// Stop closes every live subscription and cancels the supervised workers.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.mu.RLock()
	hub := o.hub
	o.mu.RUnlock()
	if hub != nil {
		hub.Shutdown()
	}
	o.supervisor.Stop()
}
