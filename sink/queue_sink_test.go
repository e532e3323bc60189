package sink

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"group-chat/domain/chat"
	"group-chat/domain/event"
	apperrors "group-chat/errors"
)

func TestQueueSink_DropsWhenFull(t *testing.T) {
	req := require.New(t)
	q := NewQueueSink("test", 1, slog.Default())
	ctx := t.Context()

	first := chat.Message{ID: "1", Group: "flat", Seq: 1}
	second := chat.Message{ID: "2", Group: "flat", Seq: 2}

	req.NoError(q.Consume(ctx, event.MessageAppended{Message: first}))
	err := q.Consume(ctx, event.MessageAppended{Message: second})
	req.True(errors.Is(err, apperrors.ErrDispatchFailure))
	req.Equal(1, q.Len())

	got := <-q.Messages()
	req.Equal(first.ID, got.ID)
}

func TestQueueSink_IgnoresReceiptUpdates(t *testing.T) {
	req := require.New(t)
	q := NewQueueSink("test", 1, slog.Default())

	req.NoError(q.Consume(t.Context(), event.ReceiptsUpdated{Message: chat.Message{Seq: 1}}))
	req.Zero(q.Len())
}
