package runtime

import (
	"context"
	"sync"

	"group-chat/domain/chat"
	"group-chat/domain/event"
	"group-chat/errors"
	"group-chat/observability"
)

// Subscription is one live stream of a group. A single pump goroutine
// replays the store then forwards live events, so everything it emits
// follows the store's order and an update never precedes its creation.
type Subscription struct {
	id     string
	group  chat.GroupID
	hub    *Hub
	ctx    context.Context
	cancel context.CancelFunc
	inbox  chan event.DomainEvent
	out    chan chat.Event
	done   chan struct{}

	errMu sync.Mutex
	err   error

	// Owned by the pump goroutine. Creations up to floor were never sent.
	lastEmitted chat.Sequence
	floor       chat.Sequence
	parked      map[chat.Sequence]chat.Message
	emitted     map[chat.Sequence]chat.Message
	replaying   bool
	backlog     []event.DomainEvent
}

func (s *Subscription) ID() string {
	return s.id
}

func (s *Subscription) Group() chat.GroupID {
	return s.group
}

// Events is closed when the subscription ends, Err tells why.
func (s *Subscription) Events() <-chan chat.Event {
	return s.out
}

// Err is nil after a cancellation by the caller.
func (s *Subscription) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Cancel stops the subscription and waits for the pump to exit.
// No event is delivered once it returns.
func (s *Subscription) Cancel() {
	s.cancel()
	<-s.done
}

// Done is closed once the pump has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) deliver(e event.DomainEvent) {
	if s.ctx.Err() != nil {
		return
	}
	select {
	case s.inbox <- e:
	default:
		observability.SubscribersLagging.Inc()
		s.hub.log.Warn("Subscriber lagging, terminating its stream", "group", s.group, "subscription", s.id)
		s.fail(errors.ErrSubscriberLagging)
	}
}

func (s *Subscription) fail(err error) {
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()
	s.cancel()
}

func (s *Subscription) run(since *chat.Cursor) {
	defer close(s.done)
	defer close(s.out)
	defer s.hub.unregister(s)

	s.replaying = true
	if err := s.replay(since); err != nil {
		s.stop(err)
		return
	}
	s.replaying = false
	backlog := s.backlog
	s.backlog = nil
	for _, e := range backlog {
		if err := s.handle(e); err != nil {
			s.stop(err)
			return
		}
	}
	for {
		select {
		case <-s.ctx.Done():
			return
		case e := <-s.inbox:
			if err := s.handle(e); err != nil {
				s.stop(err)
				return
			}
		}
	}
}

// stop records err unless the subscription is already ending.
func (s *Subscription) stop(err error) {
	if s.ctx.Err() != nil {
		return
	}
	s.hub.log.Warn("Subscription terminated", "group", s.group, "subscription", s.id, "error", err)
	s.fail(err)
}

func (s *Subscription) replay(since *chat.Cursor) error {
	head, err := s.hub.source.Head(s.ctx, s.group)
	if err != nil {
		return err
	}
	if since == nil {
		latest, err := s.hub.source.Latest(s.ctx, s.group, s.hub.replayWindow)
		if err != nil {
			return err
		}
		// Only the window is replayed, older history is not a gap
		s.lastEmitted = head
		if len(latest) > 0 {
			s.lastEmitted = min(head, latest[0].Seq-1)
		}
		s.floor = s.lastEmitted
		for _, m := range latest {
			if err := s.emitCreated(m); err != nil {
				return err
			}
		}
		return nil
	}

	s.lastEmitted = since.Sequence()
	return s.fill(head)
}

// fill emits the stored messages after lastEmitted up to and including upTo.
func (s *Subscription) fill(upTo chat.Sequence) error {
	for s.lastEmitted < upTo {
		batchEnd := min(upTo, s.lastEmitted+replayChunk)
		messages, err := s.hub.source.Range(s.ctx, s.group, s.lastEmitted, batchEnd)
		if err != nil {
			return err
		}
		if len(messages) == 0 {
			return nil
		}
		for _, m := range messages {
			if err := s.emitCreated(m); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Subscription) handle(e event.DomainEvent) error {
	switch evt := e.(type) {
	case event.MessageAppended:
		m := evt.Message
		if m.Seq <= s.lastEmitted {
			return nil
		}
		if m.Seq > s.lastEmitted+1 {
			if err := s.fill(m.Seq - 1); err != nil {
				return err
			}
		}
		return s.emitCreated(m)
	case event.ReceiptsUpdated:
		m := evt.Message
		if m.Seq > s.lastEmitted {
			if parked, ok := s.parked[m.Seq]; ok {
				m = mergeSnapshots(parked, m)
			}
			s.parked[m.Seq] = m
			return nil
		}
		// Never created on this stream, the subscriber has no message to update
		if m.Seq <= s.floor {
			return nil
		}
		return s.emitUpdated(m)
	default:
		return nil
	}
}

// emitCreated emits m once, then releases an update parked for it.
func (s *Subscription) emitCreated(m chat.Message) error {
	if m.Seq <= s.lastEmitted {
		return nil
	}
	if err := s.emit(chat.Event{Kind: chat.EventCreated, Message: m, Cursor: m.Cursor()}); err != nil {
		return err
	}
	s.lastEmitted = m.Seq
	s.emitted[m.Seq] = m
	if m.Seq > trackedSnapshots {
		delete(s.emitted, m.Seq-trackedSnapshots)
	}

	parked, ok := s.parked[m.Seq]
	if !ok {
		return nil
	}
	delete(s.parked, m.Seq)
	return s.emitUpdated(parked)
}

// emitUpdated unions m into the sets last emitted for its sequence, so a
// stale snapshot never shrinks what the subscriber has already seen.
// Sequences older than the tracked window are forwarded as they come.
func (s *Subscription) emitUpdated(m chat.Message) error {
	if seen, ok := s.emitted[m.Seq]; ok {
		merged := mergeSnapshots(seen, m)
		if merged.DeliveredTo.Len() == seen.DeliveredTo.Len() && merged.ReadBy.Len() == seen.ReadBy.Len() {
			return nil
		}
		m = merged
		s.emitted[m.Seq] = m
	}
	return s.emit(chat.Event{Kind: chat.EventUpdated, Message: m, Cursor: m.Cursor()})
}

// emit blocks until the subscriber reads e. While replaying, live events
// keep being drained into the backlog so a long replay is not taken for lag.
func (s *Subscription) emit(e chat.Event) error {
	for {
		var inbox chan event.DomainEvent
		if s.replaying {
			inbox = s.inbox
		}
		select {
		case s.out <- e:
			return nil
		case live := <-inbox:
			if len(s.backlog) >= s.hub.replayBacklog {
				observability.SubscribersLagging.Inc()
				return errors.ErrSubscriberLagging
			}
			s.backlog = append(s.backlog, live)
		case <-s.ctx.Done():
			return s.ctx.Err()
		}
	}
}

// mergeSnapshots returns a copy of a whose sets also contain those of b.
// Snapshots are shared between subscribers and are never mutated in place.
func mergeSnapshots(a, b chat.Message) chat.Message {
	merged := a
	merged.DeliveredTo = a.DeliveredTo.Clone()
	merged.DeliveredTo.Union(b.DeliveredTo)
	merged.ReadBy = a.ReadBy.Clone()
	merged.ReadBy.Union(b.ReadBy)
	return merged
}
