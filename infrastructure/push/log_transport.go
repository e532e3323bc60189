package push

import (
	"context"
	"log/slog"

	"group-chat/domain/chat"
)

// LogTransport writes notifications to the log instead of a push gateway.
type LogTransport struct {
	log *slog.Logger
}

func NewLogTransport(log *slog.Logger) *LogTransport {
	return &LogTransport{log: log}
}

func (t *LogTransport) Push(_ context.Context, n chat.Notification) error {
	t.log.Info("Push notification",
		"recipient", n.RecipientID,
		"endpoint", n.EndpointID,
		"platform", n.Platform,
		"group", n.Group,
		"message", n.MessageID,
		"sender", n.SenderName,
		"preview", n.Preview,
		"lang", n.Lang)
	return nil
}
