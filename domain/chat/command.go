package chat

import (
	"time"
)

type Command interface {
	GroupID() GroupID
}

// SendMessageCommand is the intent of a member to append a message to a group.
// ClientSentAt is advisory, the server clock is authoritative.
type SendMessageCommand struct {
	Group        GroupID `validate:"required,max=128,excludes=:"`
	SenderID     UserID  `validate:"required,max=128,excludes=:"`
	Body         Body
	ClientSentAt *time.Time
}

func (c SendMessageCommand) GroupID() GroupID {
	return c.Group
}

type Direction int

const (
	FromNewest Direction = iota
	FromOldest
)

type ListMessagesCommand struct {
	Group     GroupID `validate:"required,max=128,excludes=:"`
	Limit     int     `validate:"gte=0"`
	Cursor    *Cursor
	Direction Direction `validate:"gte=0,lte=1"`
}

func (c ListMessagesCommand) GroupID() GroupID {
	return c.Group
}

// MarkCommand acknowledges a batch of messages on behalf of a recipient.
type MarkCommand struct {
	Group       GroupID     `validate:"required,max=128,excludes=:"`
	MessageIDs  []MessageID `validate:"required,min=1,max=500,dive,required"`
	RecipientID UserID      `validate:"required,max=128,excludes=:"`
}

func (c MarkCommand) GroupID() GroupID {
	return c.Group
}

// Page is one finite slice of a group's log, always in ascending order.
// Next is nil once the requested boundary has been reached.
type Page struct {
	Messages []Message
	Next     *Cursor
}
