package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"group-chat/domain/chat"
	apperrors "group-chat/errors"
	"group-chat/infrastructure/storage"
)

func TestTracker_GroupOfTwoScenario(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	// Given alice posts in a group shared with bob
	m1 := f.send(t, "alice", "Dinner at 8?")
	req.Equal(1, f.unread(t, "bob"))
	req.Zero(f.unread(t, "alice"))

	// When bob's device receives it
	changed, err := f.tracker.MarkDelivered(ctx, chat.MarkCommand{Group: "flat", MessageIDs: []chat.MessageID{m1.ID}, RecipientID: "bob"})
	req.NoError(err)
	req.Equal([]chat.MessageID{m1.ID}, changed)

	// Then the snapshot shows bob in the delivered set and one update was published
	updates := f.publisher.receipts()
	req.Len(updates, 1)
	req.Equal(chat.Delivered, updates[0].Kind)
	req.Equal([]chat.UserID{"bob"}, updates[0].Message.DeliveredTo.Members())
	req.Equal(1, f.unread(t, "bob"))

	// When bob reads it
	changed, err = f.tracker.MarkRead(ctx, chat.MarkCommand{Group: "flat", MessageIDs: []chat.MessageID{m1.ID}, RecipientID: "bob"})
	req.NoError(err)
	req.Equal([]chat.MessageID{m1.ID}, changed)

	// Then both have read it and nothing is left unread
	got, err := f.store.Get(ctx, "flat", m1.Seq)
	req.NoError(err)
	req.Equal([]chat.UserID{"alice", "bob"}, got.ReadBy.Members())
	req.Equal([]chat.UserID{"bob"}, got.DeliveredTo.Members())
	req.Zero(f.unread(t, "bob"))

	// And reading it again changes nothing
	changed, err = f.tracker.MarkRead(ctx, chat.MarkCommand{Group: "flat", MessageIDs: []chat.MessageID{m1.ID}, RecipientID: "bob"})
	req.NoError(err)
	req.Empty(changed)
	req.Len(f.publisher.receipts(), 2)
}

func TestTracker_ReadDoesNotImplyDelivered(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	m := f.send(t, "alice", "hello")

	_, err := f.tracker.MarkRead(context.Background(), chat.MarkCommand{Group: "flat", MessageIDs: []chat.MessageID{m.ID}, RecipientID: "bob"})
	req.NoError(err)

	got, err := f.store.Get(context.Background(), "flat", m.Seq)
	req.NoError(err)
	req.True(got.ReadBy.Contains("bob"))
	req.False(got.DeliveredTo.Contains("bob"))
}

func TestTracker_ConcurrentMarksAreIdempotent(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	var ids []chat.MessageID
	for i := 0; i < 5; i++ {
		ids = append(ids, f.send(t, "alice", "chores").ID)
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan []chat.MessageID, callers)
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			changed, err := f.tracker.MarkRead(context.Background(), chat.MarkCommand{Group: "flat", MessageIDs: ids, RecipientID: "bob"})
			errs <- err
			results <- changed
		}()
	}
	wg.Wait()
	close(results)
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	// Each message changed for exactly one caller
	seen := make(map[chat.MessageID]int)
	for changed := range results {
		for _, id := range changed {
			seen[id]++
		}
	}
	req.Len(seen, len(ids))
	for _, id := range ids {
		req.Equal(1, seen[id], "message %s", id)
	}
	req.Len(f.publisher.receipts(), len(ids))
	req.Zero(f.unread(t, "bob"))
}

func TestTracker_UnreadCountOnlyDropsThroughMarkRead(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()

	m1 := f.send(t, "alice", "one")
	req.Equal(1, f.unread(t, "bob"))
	m2 := f.send(t, "alice", "two")
	req.Equal(2, f.unread(t, "bob"))
	f.send(t, "bob", "mine")
	req.Equal(2, f.unread(t, "bob"))

	_, err := f.tracker.MarkDelivered(ctx, chat.MarkCommand{Group: "flat", MessageIDs: []chat.MessageID{m1.ID, m2.ID}, RecipientID: "bob"})
	req.NoError(err)
	req.Equal(2, f.unread(t, "bob"))

	_, err = f.tracker.MarkRead(ctx, chat.MarkCommand{Group: "flat", MessageIDs: []chat.MessageID{m2.ID}, RecipientID: "bob"})
	req.NoError(err)
	req.Equal(1, f.unread(t, "bob"))
}

func TestTracker_Rejections(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	m := f.send(t, "alice", "hello")

	_, err := f.tracker.MarkRead(ctx, chat.MarkCommand{Group: "flat", MessageIDs: []chat.MessageID{m.ID}, RecipientID: "mallory"})
	req.True(errors.Is(err, apperrors.ErrNotMember))

	_, err = f.tracker.MarkRead(ctx, chat.MarkCommand{Group: "flat", MessageIDs: []chat.MessageID{m.ID, "42"}, RecipientID: "bob"})
	req.True(errors.Is(err, apperrors.ErrMessageNotFound))

	_, err = f.tracker.MarkRead(ctx, chat.MarkCommand{Group: "flat", MessageIDs: []chat.MessageID{"abc"}, RecipientID: "bob"})
	req.True(errors.Is(err, apperrors.ErrMessageNotFound))

	_, err = f.tracker.MarkDelivered(ctx, chat.MarkCommand{Group: "flat", RecipientID: "bob"})
	req.True(errors.Is(err, apperrors.ErrInvalidCommand))

	// The aborted batch left no receipt behind
	req.Empty(f.publisher.receipts())
	req.Equal(1, f.unread(t, "bob"))
}

func TestTracker_RemovedMemberKeepsHistory(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	ctx := context.Background()
	m1 := f.send(t, "alice", "one")
	_, err := f.tracker.MarkRead(ctx, chat.MarkCommand{Group: "flat", MessageIDs: []chat.MessageID{m1.ID}, RecipientID: "bob"})
	req.NoError(err)
	f.send(t, "alice", "two")

	req.NoError(f.directory.RemoveMember(ctx, "flat", "bob"))

	_, err = f.tracker.MarkRead(ctx, chat.MarkCommand{Group: "flat", MessageIDs: []chat.MessageID{"2"}, RecipientID: "bob"})
	req.True(errors.Is(err, apperrors.ErrNotMember))
	req.Equal(1, f.unread(t, "bob"))

	got, err := f.store.Get(ctx, "flat", m1.Seq)
	req.NoError(err)
	req.True(got.ReadBy.Contains("bob"))
}

func TestTracker_UnavailableStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sent := f.send(t, "alice", "before the outage")
	published := len(f.publisher.snapshot())

	// Given receipts and messages whose database went away while the directory is up
	broken := closedDB(t, f.log)
	tracker := NewTracker(f.log, storage.NewReceiptRepository(broken, f.log), storage.NewMessageRepository(broken, f.log), f.directory, f.publisher)
	mark := chat.MarkCommand{Group: "flat", RecipientID: "bob", MessageIDs: []chat.MessageID{sent.ID}}

	testCases := []struct {
		name string
		call func() error
	}{
		{
			name: "mark read",
			call: func() error {
				_, err := tracker.MarkRead(ctx, mark)
				return err
			},
		},
		{
			name: "mark delivered",
			call: func() error {
				_, err := tracker.MarkDelivered(ctx, mark)
				return err
			},
		},
		{
			name: "unread count",
			call: func() error {
				_, err := tracker.UnreadCount(ctx, "flat", "bob")
				return err
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.call(), apperrors.ErrStoreUnavailable)
		})
	}

	// Then no receipt event left and the healthy store still counts the message unread
	require.Len(t, f.publisher.snapshot(), published)
	require.Equal(t, 1, f.unread(t, "bob"))
}
