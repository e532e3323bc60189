package workers

import (
	"context"
	"log/slog"

	"group-chat/domain/chat"
	"group-chat/infrastructure/storage"
)

// IndexWorker feeds the full text index from appended messages.
type IndexWorker struct {
	log   *slog.Logger
	queue <-chan chat.Message
	index storage.ISearchIndex
}

func NewIndexWorker(log *slog.Logger, queue <-chan chat.Message, index storage.ISearchIndex) *IndexWorker {
	return &IndexWorker{log: log, queue: queue, index: index}
}

func (w *IndexWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-w.queue:
			if !ok {
				w.log.Debug("Index queue closed")
				return nil
			}
			if err := w.index.Index(m); err != nil {
				w.log.Warn("Unable to index message", "group", m.Group, "seq", m.Seq, "error", err)
			}
		}
	}
}
