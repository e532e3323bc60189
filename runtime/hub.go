package runtime

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"group-chat/domain/chat"
	"group-chat/domain/event"
	"group-chat/errors"
	"group-chat/observability"
)

const (
	DefaultInboxSize    = 256
	DefaultReplayWindow = 50
	replayChunk         = 256
)

const (
	// trackedSnapshots bounds the receipt sets a subscription remembers per sequence.
	trackedSnapshots = 1024
	// backlogFactor times the inbox size of live events may wait behind a replay.
	backlogFactor = 16
)

// MessageSource is the read side of the message store used for replay and gap filling.
type MessageSource interface {
	Head(ctx context.Context, group chat.GroupID) (chat.Sequence, error)
	Range(ctx context.Context, group chat.GroupID, after, upTo chat.Sequence) ([]chat.Message, error)
	Latest(ctx context.Context, group chat.GroupID, n int) ([]chat.Message, error)
}

type HubStats struct {
	Groups      int
	Subscribers int
}

// Hub fans committed events out to the live subscriptions of each group.
type Hub struct {
	mu            sync.RWMutex
	log           *slog.Logger
	source        MessageSource
	groups        map[chat.GroupID]map[string]*Subscription
	inboxSize     int
	replayWindow  int
	replayBacklog int
}

func NewHub(log *slog.Logger, source MessageSource, inboxSize, replayWindow int) *Hub {
	if inboxSize <= 0 {
		inboxSize = DefaultInboxSize
	}
	if replayWindow < 0 {
		replayWindow = DefaultReplayWindow
	}
	return &Hub{
		log:           log,
		source:        source,
		groups:        make(map[chat.GroupID]map[string]*Subscription),
		inboxSize:     inboxSize,
		replayWindow:  replayWindow,
		replayBacklog: inboxSize * backlogFactor,
	}
}

// Subscribe registers a subscription and starts its replay.
// The subscription is registered before the store is read, so an append
// committed during replay is either replayed or received live, never lost.
func (h *Hub) Subscribe(ctx context.Context, group chat.GroupID, since *chat.Cursor) (*Subscription, error) {
	if since != nil {
		cursor, err := chat.ParseCursor(since.String())
		if err != nil {
			return nil, err
		}
		head, err := h.source.Head(ctx, group)
		if err != nil {
			return nil, err
		}
		// The head only grows, a cursor beyond it was never issued
		if cursor.Sequence() > head {
			return nil, errors.ErrInvalidCursor
		}
		since = &cursor
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		id:     uuid.NewString(),
		group:  group,
		hub:    h,
		ctx:    subCtx,
		cancel: cancel,
		inbox:   make(chan event.DomainEvent, h.inboxSize),
		out:     make(chan chat.Event),
		done:    make(chan struct{}),
		parked:  make(map[chat.Sequence]chat.Message),
		emitted: make(map[chat.Sequence]chat.Message),
	}
	h.register(sub)
	go sub.run(since)

	h.log.Debug("Subscription opened", "group", group, "subscription", sub.id, "since", since)
	return sub, nil
}

// Consume fans an event out without blocking: a subscriber whose inbox is
// full is terminated as lagging, the others are unaffected.
func (h *Hub) Consume(_ context.Context, e event.DomainEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.groups[e.GroupID()] {
		sub.deliver(e)
	}
	return nil
}

func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	stats := HubStats{Groups: len(h.groups)}
	for _, subs := range h.groups {
		stats.Subscribers += len(subs)
	}
	return stats
}

// Shutdown cancels every live subscription.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	var subs []*Subscription
	for _, group := range h.groups {
		for _, sub := range group {
			subs = append(subs, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		sub.Cancel()
	}
	h.log.Info("Hub shut down", "subscriptions", len(subs))
}

func (h *Hub) register(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.groups[sub.group]; !ok {
		h.groups[sub.group] = make(map[string]*Subscription)
	}
	h.groups[sub.group][sub.id] = sub
	observability.Subscribers.Inc()
}

// unregister leaves no empty group entry behind.
func (h *Hub) unregister(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.groups[sub.group]
	if !ok {
		return
	}
	if _, ok := subs[sub.id]; !ok {
		return
	}
	delete(subs, sub.id)
	if len(subs) == 0 {
		delete(h.groups, sub.group)
	}
	observability.Subscribers.Dec()
}
