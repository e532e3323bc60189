package storage

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"group-chat/domain/chat"
)

// Records are written with the protobuf wire format. Field numbers are
// part of the on-disk contract and must never be reused.
const (
	messageGroupField        protowire.Number = 1
	messageSeqField          protowire.Number = 2
	messageSenderField       protowire.Number = 3
	messageTextField         protowire.Number = 4
	messageMediaField        protowire.Number = 5
	messageExpenseField      protowire.Number = 6
	messageCreatedAtField    protowire.Number = 7
	messageClientSentAtField protowire.Number = 8

	mediaURLField  protowire.Number = 1
	mediaKindField protowire.Number = 2

	expenseTitleField        protowire.Number = 1
	expenseAmountField       protowire.Number = 2
	expenseParticipantsField protowire.Number = 3

	groupIDField          protowire.Number = 1
	groupNameField        protowire.Number = 2
	groupMemberField      protowire.Number = 3
	groupLastMessageField protowire.Number = 4

	lastSeqField     protowire.Number = 1
	lastSnippetField protowire.Number = 2
	lastSenderField  protowire.Number = 3
	lastAtField      protowire.Number = 4

	profileUserField protowire.Number = 1
	profileNameField protowire.Number = 2

	endpointIDField        protowire.Number = 1
	endpointUserField      protowire.Number = 2
	endpointPlatformField  protowire.Number = 3
	endpointTokenField     protowire.Number = 4
	endpointCreatedAtField protowire.Number = 5
)

type profile struct {
	UserID      chat.UserID
	DisplayName string
}

func encodeMessage(m chat.Message) []byte {
	var b []byte
	b = appendString(b, messageGroupField, string(m.Group))
	b = appendVarint(b, messageSeqField, uint64(m.Seq))
	b = appendString(b, messageSenderField, string(m.SenderID))
	b = appendString(b, messageTextField, m.Body.Text)
	if m.Body.Media != nil {
		var media []byte
		media = appendString(media, mediaURLField, m.Body.Media.URL)
		media = appendString(media, mediaKindField, string(m.Body.Media.Kind))
		b = appendMessage(b, messageMediaField, media)
	}
	if m.Body.Expense != nil {
		var expense []byte
		expense = appendString(expense, expenseTitleField, m.Body.Expense.Title)
		expense = protowire.AppendTag(expense, expenseAmountField, protowire.Fixed64Type)
		expense = protowire.AppendFixed64(expense, math.Float64bits(m.Body.Expense.Amount))
		expense = appendVarint(expense, expenseParticipantsField, uint64(m.Body.Expense.ParticipantCount))
		b = appendMessage(b, messageExpenseField, expense)
	}
	b = appendTime(b, messageCreatedAtField, m.CreatedAt)
	if m.ClientSentAt != nil {
		b = appendTime(b, messageClientSentAtField, *m.ClientSentAt)
	}
	return b
}

func decodeMessage(b []byte) (chat.Message, error) {
	var m chat.Message
	var nested error
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case messageGroupField:
			v, n := protowire.ConsumeString(b)
			m.Group = chat.GroupID(v)
			return n
		case messageSeqField:
			v, n := protowire.ConsumeVarint(b)
			m.Seq = chat.Sequence(v)
			return n
		case messageSenderField:
			v, n := protowire.ConsumeString(b)
			m.SenderID = chat.UserID(v)
			return n
		case messageTextField:
			v, n := protowire.ConsumeString(b)
			m.Body.Text = v
			return n
		case messageMediaField:
			v, n := protowire.ConsumeBytes(b)
			if n >= 0 {
				m.Body.Media, nested = decodeMedia(v)
			}
			return n
		case messageExpenseField:
			v, n := protowire.ConsumeBytes(b)
			if n >= 0 {
				m.Body.Expense, nested = decodeExpense(v)
			}
			return n
		case messageCreatedAtField:
			v, n := protowire.ConsumeVarint(b)
			m.CreatedAt = fromUnixNano(v)
			return n
		case messageClientSentAtField:
			v, n := protowire.ConsumeVarint(b)
			at := fromUnixNano(v)
			m.ClientSentAt = &at
			return n
		default:
			return protowire.ConsumeFieldValue(num, typ, b)
		}
	})
	if err == nil {
		err = nested
	}
	if err != nil {
		return chat.Message{}, fmt.Errorf("failed to decode message: %w", err)
	}
	m.ID = m.Seq.MessageID()
	return m, nil
}

func decodeMedia(b []byte) (*chat.Media, error) {
	media := &chat.Media{}
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case mediaURLField:
			v, n := protowire.ConsumeString(b)
			media.URL = v
			return n
		case mediaKindField:
			v, n := protowire.ConsumeString(b)
			media.Kind = chat.MediaKind(v)
			return n
		default:
			return protowire.ConsumeFieldValue(num, typ, b)
		}
	})
	return media, err
}

func decodeExpense(b []byte) (*chat.ExpenseRef, error) {
	expense := &chat.ExpenseRef{}
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case expenseTitleField:
			v, n := protowire.ConsumeString(b)
			expense.Title = v
			return n
		case expenseAmountField:
			v, n := protowire.ConsumeFixed64(b)
			expense.Amount = math.Float64frombits(v)
			return n
		case expenseParticipantsField:
			v, n := protowire.ConsumeVarint(b)
			expense.ParticipantCount = int(v)
			return n
		default:
			return protowire.ConsumeFieldValue(num, typ, b)
		}
	})
	return expense, err
}

func encodeGroup(g chat.Group) []byte {
	var b []byte
	b = appendString(b, groupIDField, string(g.ID))
	b = appendString(b, groupNameField, g.Name)
	for _, member := range g.Members {
		b = protowire.AppendTag(b, groupMemberField, protowire.BytesType)
		b = protowire.AppendString(b, string(member))
	}
	if g.LastMessage != nil {
		var last []byte
		last = appendVarint(last, lastSeqField, uint64(g.LastMessage.Seq))
		last = appendString(last, lastSnippetField, g.LastMessage.Snippet)
		last = appendString(last, lastSenderField, string(g.LastMessage.SenderID))
		last = appendTime(last, lastAtField, g.LastMessage.At)
		b = appendMessage(b, groupLastMessageField, last)
	}
	return b
}

func decodeGroup(b []byte) (chat.Group, error) {
	var g chat.Group
	var nested error
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case groupIDField:
			v, n := protowire.ConsumeString(b)
			g.ID = chat.GroupID(v)
			return n
		case groupNameField:
			v, n := protowire.ConsumeString(b)
			g.Name = v
			return n
		case groupMemberField:
			v, n := protowire.ConsumeString(b)
			if n >= 0 {
				g.Members = append(g.Members, chat.UserID(v))
			}
			return n
		case groupLastMessageField:
			v, n := protowire.ConsumeBytes(b)
			if n >= 0 {
				g.LastMessage, nested = decodeLastMessage(v)
			}
			return n
		default:
			return protowire.ConsumeFieldValue(num, typ, b)
		}
	})
	if err == nil {
		err = nested
	}
	if err != nil {
		return chat.Group{}, fmt.Errorf("failed to decode group: %w", err)
	}
	return g, nil
}

func decodeLastMessage(b []byte) (*chat.LastMessage, error) {
	last := &chat.LastMessage{}
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case lastSeqField:
			v, n := protowire.ConsumeVarint(b)
			last.Seq = chat.Sequence(v)
			return n
		case lastSnippetField:
			v, n := protowire.ConsumeString(b)
			last.Snippet = v
			return n
		case lastSenderField:
			v, n := protowire.ConsumeString(b)
			last.SenderID = chat.UserID(v)
			return n
		case lastAtField:
			v, n := protowire.ConsumeVarint(b)
			last.At = fromUnixNano(v)
			return n
		default:
			return protowire.ConsumeFieldValue(num, typ, b)
		}
	})
	return last, err
}

func encodeProfile(p profile) []byte {
	var b []byte
	b = appendString(b, profileUserField, string(p.UserID))
	b = appendString(b, profileNameField, p.DisplayName)
	return b
}

func decodeProfile(b []byte) (profile, error) {
	var p profile
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case profileUserField:
			v, n := protowire.ConsumeString(b)
			p.UserID = chat.UserID(v)
			return n
		case profileNameField:
			v, n := protowire.ConsumeString(b)
			p.DisplayName = v
			return n
		default:
			return protowire.ConsumeFieldValue(num, typ, b)
		}
	})
	if err != nil {
		return profile{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	return p, nil
}

func encodeEndpoint(e chat.Endpoint) []byte {
	var b []byte
	b = appendString(b, endpointIDField, e.ID)
	b = appendString(b, endpointUserField, string(e.UserID))
	b = appendString(b, endpointPlatformField, string(e.Platform))
	b = appendString(b, endpointTokenField, e.Token)
	b = appendTime(b, endpointCreatedAtField, e.CreatedAt)
	return b
}

func decodeEndpoint(b []byte) (chat.Endpoint, error) {
	var e chat.Endpoint
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case endpointIDField:
			v, n := protowire.ConsumeString(b)
			e.ID = v
			return n
		case endpointUserField:
			v, n := protowire.ConsumeString(b)
			e.UserID = chat.UserID(v)
			return n
		case endpointPlatformField:
			v, n := protowire.ConsumeString(b)
			e.Platform = chat.Platform(v)
			return n
		case endpointTokenField:
			v, n := protowire.ConsumeString(b)
			e.Token = v
			return n
		case endpointCreatedAtField:
			v, n := protowire.ConsumeVarint(b)
			e.CreatedAt = fromUnixNano(v)
			return n
		default:
			return protowire.ConsumeFieldValue(num, typ, b)
		}
	})
	if err != nil {
		return chat.Endpoint{}, fmt.Errorf("failed to decode endpoint: %w", err)
	}
	return e, nil
}

func encodeSequence(seq chat.Sequence) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(seq))
}

func decodeSequence(b []byte) (chat.Sequence, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("sequence value has %d bytes, want 8", len(b))
	}
	return chat.Sequence(binary.BigEndian.Uint64(b)), nil
}

func encodeReceiptTime(at time.Time) []byte {
	return protowire.AppendVarint(nil, uint64(at.UnixNano()))
}

// consumeFields walks the top level fields of b. fn returns the number of
// bytes it consumed, or a negative protowire error code.
func consumeFields(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) int) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if n = fn(num, typ, b); n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendMessage(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendTime(b []byte, num protowire.Number, at time.Time) []byte {
	if at.IsZero() {
		return b
	}
	return appendVarint(b, num, uint64(at.UnixNano()))
}

func fromUnixNano(v uint64) time.Time {
	return time.Unix(0, int64(v)).UTC()
}
