// Package chat contains the core concepts of group messaging.
// Messages are immutable except for their delivered/read sets.
// No runtime, network, or storage logic should be added here.
package chat

import (
	"fmt"
	"strings"
	"time"

	"group-chat/errors"
)

type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaLocation MediaKind = "location"
)

type Media struct {
	URL  string
	Kind MediaKind
}

// ExpenseRef links a message to an expense computed outside of the chat.
type ExpenseRef struct {
	Title            string
	Amount           float64
	ParticipantCount int
}

type Body struct {
	Text    string
	Media   *Media
	Expense *ExpenseRef
}

func (b Body) IsEmpty() bool {
	return strings.TrimSpace(b.Text) == "" && b.Media == nil && b.Expense == nil
}

func (b Body) Validate() error {
	if b.IsEmpty() {
		return fmt.Errorf("%w: text, media and expense are all empty", errors.ErrInvalidBody)
	}
	if b.Media != nil {
		if strings.TrimSpace(b.Media.URL) == "" {
			return fmt.Errorf("%w: media url is empty", errors.ErrInvalidBody)
		}
		if b.Media.Kind != MediaImage && b.Media.Kind != MediaLocation {
			return fmt.Errorf("%w: unknown media kind %q", errors.ErrInvalidBody, b.Media.Kind)
		}
	}
	if b.Expense != nil {
		if strings.TrimSpace(b.Expense.Title) == "" {
			return fmt.Errorf("%w: expense title is empty", errors.ErrInvalidBody)
		}
		if b.Expense.ParticipantCount < 1 {
			return fmt.Errorf("%w: expense needs at least one participant", errors.ErrInvalidBody)
		}
	}
	return nil
}

// Summary is the human readable line used by list previews and notifications.
func (b Body) Summary() string {
	if text := strings.TrimSpace(b.Text); text != "" {
		return text
	}
	if b.Media != nil {
		switch b.Media.Kind {
		case MediaLocation:
			return "📍 Location"
		default:
			return "📷 Photo"
		}
	}
	if b.Expense != nil {
		return fmt.Sprintf("💸 %s (%.2f)", b.Expense.Title, b.Expense.Amount)
	}
	return ""
}

// Message represents one entry of a group log.
type Message struct {
	ID           MessageID
	Group        GroupID
	Seq          Sequence
	SenderID     UserID
	Body         Body
	CreatedAt    time.Time
	ClientSentAt *time.Time
	DeliveredTo  IdentitySet
	ReadBy       IdentitySet
}

func (m Message) Cursor() Cursor {
	return m.Seq.Cursor()
}

type ReceiptKind string

const (
	Delivered ReceiptKind = "d"
	Read      ReceiptKind = "r"
)

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
)

// Event is one item of a live subscription.
// An updated event carries the same message identifier with refreshed sets.
type Event struct {
	Kind    EventKind
	Message Message
	Cursor  Cursor
}
