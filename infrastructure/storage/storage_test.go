package storage

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"group-chat/domain/chat"
)

// setupTestDB opens a Badger instance living in the test's temporary directory.
func setupTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func appendText(t *testing.T, repo *MessageRepository, group chat.GroupID, sender chat.UserID, text string) chat.Message {
	t.Helper()
	m, err := repo.Append(chat.Message{
		Group:     group,
		SenderID:  sender,
		Body:      chat.Body{Text: text},
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return m
}

func seqsOf(messages []chat.Message) []chat.Sequence {
	seqs := make([]chat.Sequence, 0, len(messages))
	for _, m := range messages {
		seqs = append(seqs, m.Seq)
	}
	return seqs
}

var testLogger = slog.Default()
