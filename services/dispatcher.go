package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"group-chat/domain/chat"
	"group-chat/domain/event"
	"group-chat/errors"
	"group-chat/sink"
)

type EndpointStore interface {
	RegisterEndpoint(ctx context.Context, user chat.UserID, platform chat.Platform, token string) (chat.Endpoint, error)
	UnregisterEndpoint(ctx context.Context, user chat.UserID, endpointID string) error
}

// Dispatcher is the entry point of the notification side channel.
// Nothing it does can fail or slow down an append.
type Dispatcher struct {
	log       *slog.Logger
	queue     *sink.QueueSink
	endpoints EndpointStore
}

func NewDispatcher(log *slog.Logger, queue *sink.QueueSink, endpoints EndpointStore) *Dispatcher {
	return &Dispatcher{log: log, queue: queue, endpoints: endpoints}
}

// OnMessageAppended enqueues the message for the notification workers.
func (d *Dispatcher) OnMessageAppended(m chat.Message) {
	if err := d.queue.Enqueue(m); err != nil {
		d.log.Warn("Notification dropped", "group", m.Group, "seq", m.Seq, "error", err)
	}
}

func (d *Dispatcher) Consume(_ context.Context, e event.DomainEvent) error {
	if evt, ok := e.(event.MessageAppended); ok {
		d.OnMessageAppended(evt.Message)
	}
	return nil
}

func (d *Dispatcher) RegisterEndpoint(ctx context.Context, user chat.UserID, platform chat.Platform, token string) (chat.Endpoint, error) {
	if err := validateIdentity(string(user)); err != nil {
		return chat.Endpoint{}, err
	}
	if !platform.Valid() {
		return chat.Endpoint{}, fmt.Errorf("%w: unknown platform %q", errors.ErrInvalidCommand, platform)
	}
	if strings.TrimSpace(token) == "" {
		return chat.Endpoint{}, fmt.Errorf("%w: empty endpoint token", errors.ErrInvalidCommand)
	}
	return d.endpoints.RegisterEndpoint(ctx, user, platform, token)
}

func (d *Dispatcher) UnregisterEndpoint(ctx context.Context, user chat.UserID, endpointID string) error {
	if strings.TrimSpace(endpointID) == "" {
		return fmt.Errorf("%w: empty endpoint id", errors.ErrInvalidCommand)
	}
	return d.endpoints.UnregisterEndpoint(ctx, user, endpointID)
}
