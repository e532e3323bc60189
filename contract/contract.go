//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"group-chat/domain/chat"
	"group-chat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives every domain event published after a commit.
// Consume must not block: the append path is waiting on it.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

type EventPublisher interface {
	Publish(ctx context.Context, e event.DomainEvent)
}

// MembershipDirectory resolves the current members of a group.
// It is consulted on every call, never cached by the core.
type MembershipDirectory interface {
	Members(ctx context.Context, group chat.GroupID) ([]chat.UserID, error)
}

type IdentityProvider interface {
	DisplayName(ctx context.Context, user chat.UserID) (string, error)
}

type EndpointRegistry interface {
	Endpoints(ctx context.Context, user chat.UserID) ([]chat.Endpoint, error)
}

type PushTransport interface {
	Push(ctx context.Context, n chat.Notification) error
}
