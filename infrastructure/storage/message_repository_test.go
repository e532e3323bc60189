package storage

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"group-chat/domain/chat"
	apperrors "group-chat/errors"
)

func TestMessageRepository_AppendAssignsGapFreeSequences(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(setupTestDB(t), testLogger)

	for i := 1; i <= 3; i++ {
		m := appendText(t, repo, "flat", "alice", fmt.Sprintf("message %d", i))
		req.Equal(chat.Sequence(i), m.Seq)
		req.Equal(chat.Sequence(i).MessageID(), m.ID)
	}
	// Sequences are scoped to a group
	other := appendText(t, repo, "trip", "bob", "first of trip")
	req.Equal(chat.Sequence(1), other.Seq)

	head, err := repo.Head("flat")
	req.NoError(err)
	req.Equal(chat.Sequence(3), head)

	head, err = repo.Head("unknown")
	req.NoError(err)
	req.Zero(head)
}

func TestMessageRepository_SenderHasReadOwnMessage(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(setupTestDB(t), testLogger)

	appended := appendText(t, repo, "flat", "alice", "hello")
	req.True(appended.ReadBy.Contains("alice"))
	req.Zero(appended.DeliveredTo.Len())

	stored, err := repo.Get("flat", appended.Seq)
	req.NoError(err)
	req.Equal([]chat.UserID{"alice"}, stored.ReadBy.Members())
	req.Zero(stored.DeliveredTo.Len())
}

func TestMessageRepository_GetUnknownMessage(t *testing.T) {
	repo := NewMessageRepository(setupTestDB(t), testLogger)

	_, err := repo.Get("flat", 1)
	require.True(t, errors.Is(err, apperrors.ErrMessageNotFound))
}

func TestMessageRepository_AfterAndBefore(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(setupTestDB(t), testLogger)
	for i := 1; i <= 10; i++ {
		appendText(t, repo, "flat", "alice", fmt.Sprintf("m%d", i))
	}
	// A neighbour group sharing the prefix must never leak in
	appendText(t, repo, "flat2", "bob", "noise")

	after, err := repo.After("flat", 5, 100)
	req.NoError(err)
	req.Equal([]chat.Sequence{6, 7, 8, 9, 10}, seqsOf(after))

	after, err = repo.After("flat", 0, 3)
	req.NoError(err)
	req.Equal([]chat.Sequence{1, 2, 3}, seqsOf(after))

	latest, err := repo.Before("flat", 0, 3)
	req.NoError(err)
	req.Equal([]chat.Sequence{8, 9, 10}, seqsOf(latest))

	older, err := repo.Before("flat", 8, 3)
	req.NoError(err)
	req.Equal([]chat.Sequence{5, 6, 7}, seqsOf(older))

	oldest, err := repo.Before("flat", 3, 10)
	req.NoError(err)
	req.Equal([]chat.Sequence{1, 2}, seqsOf(oldest))

	none, err := repo.Before("flat", 1, 10)
	req.NoError(err)
	req.Empty(none)
}

func TestMessageRepository_AppendUpdatesLastMessage(t *testing.T) {
	req := require.New(t)
	db := setupTestDB(t)
	repo := NewMessageRepository(db, testLogger)
	directory := NewDirectoryRepository(db, testLogger)
	req.NoError(directory.UpsertGroup(t.Context(), "flat", "Flatmates", []chat.UserID{"alice", "bob"}))

	appendText(t, repo, "flat", "alice", "first")
	_, err := repo.Append(chat.Message{
		Group:    "flat",
		SenderID: "bob",
		Body:     chat.Body{Media: &chat.Media{URL: "geo:1,2", Kind: chat.MediaLocation}},
	})
	req.NoError(err)

	group, err := directory.GetGroup(t.Context(), "flat")
	req.NoError(err)
	req.Equal("Flatmates", group.Name)
	req.Equal([]chat.UserID{"alice", "bob"}, group.Members)
	req.NotNil(group.LastMessage)
	req.Equal(chat.Sequence(2), group.LastMessage.Seq)
	req.Equal(chat.UserID("bob"), group.LastMessage.SenderID)
	req.Equal("📍 Location", group.LastMessage.Snippet)
}

func TestMessageRepository_ConcurrentAppendsStayGapFree(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(setupTestDB(t), testLogger)
	repo.conflictRetries = 1000

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			appendText(t, repo, "flat", "alice", fmt.Sprintf("m%d", i))
		}(i)
	}
	wg.Wait()

	all, err := repo.After("flat", 0, 100)
	req.NoError(err)
	req.Len(all, 20)
	for i, m := range all {
		req.Equal(chat.Sequence(i+1), m.Seq)
	}
}
