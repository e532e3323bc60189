package services

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"group-chat/contract"
	"group-chat/domain/chat"
	"group-chat/domain/event"
	"group-chat/infrastructure/storage"
	"group-chat/observability"
)

type ITracker interface {
	MarkDelivered(ctx context.Context, cmd chat.MarkCommand) ([]chat.MessageID, error)
	MarkRead(ctx context.Context, cmd chat.MarkCommand) ([]chat.MessageID, error)
	UnreadCount(ctx context.Context, group chat.GroupID, recipient chat.UserID) (int, error)
}

// Tracker records delivered and read receipts. Receipts are set unions:
// they never take the append lock and repeating one is a no-op.
type Tracker struct {
	log       *slog.Logger
	receipts  storage.IReceiptRepository
	messages  storage.IMessageRepository
	directory contract.MembershipDirectory
	publisher contract.EventPublisher
}

func NewTracker(log *slog.Logger, receipts storage.IReceiptRepository, messages storage.IMessageRepository,
	directory contract.MembershipDirectory, publisher contract.EventPublisher) *Tracker {
	return &Tracker{
		log:       log,
		receipts:  receipts,
		messages:  messages,
		directory: directory,
		publisher: publisher,
	}
}

// MarkDelivered returns the identifiers whose delivered set grew.
func (t *Tracker) MarkDelivered(ctx context.Context, cmd chat.MarkCommand) ([]chat.MessageID, error) {
	return t.mark(ctx, cmd, chat.Delivered)
}

// MarkRead does not imply delivery, callers wanting both call both.
func (t *Tracker) MarkRead(ctx context.Context, cmd chat.MarkCommand) ([]chat.MessageID, error) {
	return t.mark(ctx, cmd, chat.Read)
}

func (t *Tracker) mark(ctx context.Context, cmd chat.MarkCommand, kind chat.ReceiptKind) ([]chat.MessageID, error) {
	if err := validateCommand(cmd); err != nil {
		return nil, err
	}
	if err := requireMember(ctx, t.directory, cmd.Group, cmd.RecipientID); err != nil {
		return nil, err
	}
	seqs := make([]chat.Sequence, 0, len(cmd.MessageIDs))
	for _, id := range cmd.MessageIDs {
		seq, err := chat.ParseMessageID(id)
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, seq)
	}

	changed, err := t.receipts.Add(cmd.Group, seqs, kind, cmd.RecipientID)
	if err != nil {
		t.log.Error("Unable to record receipts", "group", cmd.Group, "recipient", cmd.RecipientID, "kind", kind, "error", err)
		return nil, err
	}
	observability.ReceiptsRecorded.WithLabelValues(kindLabel(kind)).Add(float64(len(changed)))

	for _, seq := range changed {
		// The snapshot is read after commit so it contains this receipt
		message, err := t.messages.Get(cmd.Group, seq)
		if err != nil {
			t.log.Warn("Receipt recorded but snapshot unavailable", "group", cmd.Group, "seq", seq, "error", err)
			continue
		}
		t.publisher.Publish(ctx, event.ReceiptsUpdated{Message: message, Kind: kind, RecipientID: cmd.RecipientID})
	}
	return lo.Map(changed, func(seq chat.Sequence, _ int) chat.MessageID {
		return seq.MessageID()
	}), nil
}

// UnreadCount answers for current and former members alike.
func (t *Tracker) UnreadCount(_ context.Context, group chat.GroupID, recipient chat.UserID) (int, error) {
	if err := validateIdentity(string(group)); err != nil {
		return 0, err
	}
	if err := validateIdentity(string(recipient)); err != nil {
		return 0, err
	}
	return t.receipts.CountUnread(group, recipient)
}

func kindLabel(kind chat.ReceiptKind) string {
	if kind == chat.Read {
		return "read"
	}
	return "delivered"
}
