package event

import (
	"group-chat/domain/chat"
)

type DomainEvent interface {
	GroupID() chat.GroupID
	Sequence() chat.Sequence
}

// MessageAppended is emitted once per message, right after the store committed it.
type MessageAppended struct {
	Message chat.Message
}

func (m MessageAppended) GroupID() chat.GroupID {
	return m.Message.Group
}

func (m MessageAppended) Sequence() chat.Sequence {
	return m.Message.Seq
}

// ReceiptsUpdated carries a refreshed snapshot of a message whose
// delivered or read set grew.
type ReceiptsUpdated struct {
	Message     chat.Message
	Kind        chat.ReceiptKind
	RecipientID chat.UserID
}

func (r ReceiptsUpdated) GroupID() chat.GroupID {
	return r.Message.Group
}

func (r ReceiptsUpdated) Sequence() chat.Sequence {
	return r.Message.Seq
}
