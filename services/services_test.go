package services

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"group-chat/domain/chat"
	"group-chat/domain/event"
	"group-chat/infrastructure/storage"
)

// recordingPublisher keeps every published event in publication order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []event.DomainEvent
	onPub  func(e event.DomainEvent)
}

func (p *recordingPublisher) Publish(_ context.Context, e event.DomainEvent) {
	if p.onPub != nil {
		p.onPub(e)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) snapshot() []event.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.DomainEvent(nil), p.events...)
}

func (p *recordingPublisher) receipts() []event.ReceiptsUpdated {
	var out []event.ReceiptsUpdated
	for _, e := range p.snapshot() {
		if r, ok := e.(event.ReceiptsUpdated); ok {
			out = append(out, r)
		}
	}
	return out
}

type fixture struct {
	log       *slog.Logger
	db        *badger.DB
	directory *storage.DirectoryRepository
	messages  *storage.MessageRepository
	receipts  *storage.ReceiptRepository
	publisher *recordingPublisher
	store     *MessageStore
	tracker   *Tracker
}

// newFixture opens badger in the test's temporary directory with the group
// "flat" made of alice and bob.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db, err := storage.OpenBadger(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		log:       log,
		db:        db,
		directory: storage.NewDirectoryRepository(db, log),
		messages:  storage.NewMessageRepository(db, log),
		receipts:  storage.NewReceiptRepository(db, log),
		publisher: &recordingPublisher{},
	}
	f.store = NewMessageStore(log, f.messages, f.directory, f.publisher, 0, 0)
	f.tracker = NewTracker(log, f.receipts, f.messages, f.directory, f.publisher)
	require.NoError(t, f.directory.UpsertGroup(context.Background(), "flat", "Flat 3B", []chat.UserID{"alice", "bob"}))
	return f
}

// closedDB is a database that went away, every access fails.
func closedDB(t *testing.T, log *slog.Logger) *badger.DB {
	t.Helper()
	db, err := storage.OpenBadger(t.TempDir(), log)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	return db
}

func (f *fixture) send(t *testing.T, sender chat.UserID, text string) chat.Message {
	t.Helper()
	m, err := f.store.Append(context.Background(), chat.SendMessageCommand{
		Group:    "flat",
		SenderID: sender,
		Body:     chat.Body{Text: text},
	})
	require.NoError(t, err)
	return m
}

func (f *fixture) unread(t *testing.T, user chat.UserID) int {
	t.Helper()
	n, err := f.tracker.UnreadCount(context.Background(), "flat", user)
	require.NoError(t, err)
	return n
}

func idsOf(messages []chat.Message) []chat.MessageID {
	ids := make([]chat.MessageID, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
	}
	return ids
}
