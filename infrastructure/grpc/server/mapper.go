package server

import (
	"fmt"

	"github.com/samber/lo"

	"group-chat/domain/chat"
	"group-chat/errors"
	pb "group-chat/proto/chat"
)

func toBody(b pb.Body) chat.Body {
	body := chat.Body{Text: b.Text}
	if b.Media != nil {
		body.Media = &chat.Media{URL: b.Media.URL, Kind: chat.MediaKind(b.Media.Kind)}
	}
	if b.Expense != nil {
		body.Expense = &chat.ExpenseRef{
			Title:            b.Expense.Title,
			Amount:           b.Expense.Amount,
			ParticipantCount: b.Expense.ParticipantCount,
		}
	}
	return body
}

func fromBody(b chat.Body) pb.Body {
	body := pb.Body{Text: b.Text}
	if b.Media != nil {
		body.Media = &pb.Media{URL: b.Media.URL, Kind: string(b.Media.Kind)}
	}
	if b.Expense != nil {
		body.Expense = &pb.Expense{
			Title:            b.Expense.Title,
			Amount:           b.Expense.Amount,
			ParticipantCount: b.Expense.ParticipantCount,
		}
	}
	return body
}

func toMessage(m chat.Message) pb.Message {
	return pb.Message{
		ID:           string(m.ID),
		Group:        string(m.Group),
		Cursor:       m.Cursor().String(),
		SenderID:     string(m.SenderID),
		Body:         fromBody(m.Body),
		CreatedAt:    m.CreatedAt,
		ClientSentAt: m.ClientSentAt,
		DeliveredTo:  identities(m.DeliveredTo),
		ReadBy:       identities(m.ReadBy),
	}
}

func toMessages(messages []chat.Message) []pb.Message {
	return lo.Map(messages, func(m chat.Message, _ int) pb.Message {
		return toMessage(m)
	})
}

func identities(s chat.IdentitySet) []string {
	return lo.Map(s.Members(), func(id chat.UserID, _ int) string { return string(id) })
}

func toChatEvent(e chat.Event) *pb.ChatEvent {
	return &pb.ChatEvent{
		Kind:    string(e.Kind),
		Cursor:  e.Cursor.String(),
		Message: toMessage(e.Message),
	}
}

func toCursor(raw *string) *chat.Cursor {
	if raw == nil {
		return nil
	}
	return lo.ToPtr(chat.Cursor(*raw))
}

func toDirection(raw string) (chat.Direction, error) {
	switch raw {
	case "", pb.DirectionNewest:
		return chat.FromNewest, nil
	case pb.DirectionOldest:
		return chat.FromOldest, nil
	default:
		return 0, errors.MapToGRPCError(fmt.Errorf("%w: unknown direction %q", errors.ErrInvalidCommand, raw))
	}
}
