package sink

import (
	"context"
	"fmt"
	"log/slog"

	"group-chat/domain/chat"
	"group-chat/domain/event"
	"group-chat/errors"
	"group-chat/observability"
)

// QueueSink hands appended messages over to a pool of workers.
// Consume never blocks: when the queue is full the message is dropped.
type QueueSink struct {
	name  string
	queue chan chat.Message
	log   *slog.Logger
}

func NewQueueSink(name string, size int, log *slog.Logger) *QueueSink {
	return &QueueSink{
		name:  name,
		queue: make(chan chat.Message, size),
		log:   log,
	}
}

func (q *QueueSink) Consume(_ context.Context, e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageAppended:
		return q.Enqueue(evt.Message)
	default:
		return nil
	}
}

func (q *QueueSink) Enqueue(m chat.Message) error {
	select {
	case q.queue <- m:
		observability.QueueDepth.WithLabelValues(q.name).Set(float64(len(q.queue)))
		return nil
	default:
		observability.QueueDropped.WithLabelValues(q.name).Inc()
		return fmt.Errorf("%w: %s queue is full, message %s of %s dropped",
			errors.ErrDispatchFailure, q.name, m.ID, m.Group)
	}
}

// Messages is drained by the workers of the queue.
func (q *QueueSink) Messages() <-chan chat.Message {
	return q.queue
}

func (q *QueueSink) Len() int {
	return len(q.queue)
}

func (q *QueueSink) Name() string {
	return q.name
}
