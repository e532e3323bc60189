package storage

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"group-chat/domain/chat"
	apperrors "group-chat/errors"
)

func TestReceiptRepository_AddReportsOnlyChanges(t *testing.T) {
	req := require.New(t)
	db := setupTestDB(t)
	messages := NewMessageRepository(db, testLogger)
	receipts := NewReceiptRepository(db, testLogger)
	appendText(t, messages, "flat", "alice", "one")
	appendText(t, messages, "flat", "alice", "two")

	changed, err := receipts.Add("flat", []chat.Sequence{1, 2, 2}, chat.Delivered, "bob")
	req.NoError(err)
	req.Equal([]chat.Sequence{1, 2}, changed)

	// Given the same acknowledgement again, nothing changes
	changed, err = receipts.Add("flat", []chat.Sequence{1, 2}, chat.Delivered, "bob")
	req.NoError(err)
	req.Empty(changed)

	m, err := messages.Get("flat", 2)
	req.NoError(err)
	req.Equal([]chat.UserID{"bob"}, m.DeliveredTo.Members())
	// Read does not imply delivered and vice versa
	req.False(m.ReadBy.Contains("bob"))
}

func TestReceiptRepository_UnknownMessageAbortsBatch(t *testing.T) {
	req := require.New(t)
	db := setupTestDB(t)
	messages := NewMessageRepository(db, testLogger)
	receipts := NewReceiptRepository(db, testLogger)
	appendText(t, messages, "flat", "alice", "one")

	_, err := receipts.Add("flat", []chat.Sequence{1, 9}, chat.Read, "bob")
	req.True(errors.Is(err, apperrors.ErrMessageNotFound))

	m, err := messages.Get("flat", 1)
	req.NoError(err)
	req.False(m.ReadBy.Contains("bob"))
}

func TestReceiptRepository_ConcurrentMarksConverge(t *testing.T) {
	req := require.New(t)
	db := setupTestDB(t)
	messages := NewMessageRepository(db, testLogger)
	receipts := NewReceiptRepository(db, testLogger)
	receipts.conflictRetries = 1000
	appendText(t, messages, "flat", "alice", "one")

	recipients := []chat.UserID{"bob", "carol", "dave", "erin"}
	var wg sync.WaitGroup
	for _, r := range recipients {
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(r chat.UserID) {
				defer wg.Done()
				_, err := receipts.Add("flat", []chat.Sequence{1}, chat.Read, r)
				require.NoError(t, err)
			}(r)
		}
	}
	wg.Wait()

	m, err := messages.Get("flat", 1)
	req.NoError(err)
	req.Equal([]chat.UserID{"alice", "bob", "carol", "dave", "erin"}, m.ReadBy.Members())
}

func TestReceiptRepository_CountUnread(t *testing.T) {
	req := require.New(t)
	db := setupTestDB(t)
	messages := NewMessageRepository(db, testLogger)
	receipts := NewReceiptRepository(db, testLogger)
	for _, text := range []string{"a", "b", "c"} {
		appendText(t, messages, "flat", "alice", text)
	}

	unread, err := receipts.CountUnread("flat", "bob")
	req.NoError(err)
	req.Equal(3, unread)

	// The sender has read everything it wrote
	unread, err = receipts.CountUnread("flat", "alice")
	req.NoError(err)
	req.Zero(unread)

	// Delivered receipts leave the count untouched
	_, err = receipts.Add("flat", []chat.Sequence{1, 2, 3}, chat.Delivered, "bob")
	req.NoError(err)
	unread, err = receipts.CountUnread("flat", "bob")
	req.NoError(err)
	req.Equal(3, unread)

	_, err = receipts.Add("flat", []chat.Sequence{1, 2}, chat.Read, "bob")
	req.NoError(err)
	unread, err = receipts.CountUnread("flat", "bob")
	req.NoError(err)
	req.Equal(1, unread)

	unread, err = receipts.CountUnread("empty", "bob")
	req.NoError(err)
	req.Zero(unread)
}
