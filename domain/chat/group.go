package chat

import (
	"time"
	"unicode/utf8"
)

const (
	LastMessagePreviewLength  = 50
	NotificationPreviewLength = 100
)

// Group is owned by the membership directory, the chat core only
// maintains the denormalized LastMessage.
type Group struct {
	ID          GroupID
	Name        string
	Members     []UserID
	LastMessage *LastMessage
}

type LastMessage struct {
	Seq      Sequence
	Snippet  string
	SenderID UserID
	At       time.Time
}

func (g Group) HasMember(id UserID) bool {
	for _, m := range g.Members {
		if m == id {
			return true
		}
	}
	return false
}

func NewLastMessage(m Message) LastMessage {
	return LastMessage{
		Seq:      m.Seq,
		Snippet:  Preview(m.Body.Summary(), LastMessagePreviewLength),
		SenderID: m.SenderID,
		At:       m.CreatedAt,
	}
}

// Preview keeps at most n runes of text and marks a cut with an ellipsis.
func Preview(text string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "…"
}
