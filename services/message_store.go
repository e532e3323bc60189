package services

import (
	"context"
	"log/slog"
	"time"

	"group-chat/contract"
	"group-chat/domain/chat"
	"group-chat/domain/event"
	"group-chat/infrastructure/storage"
	"group-chat/observability"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

type IMessageStore interface {
	Append(ctx context.Context, cmd chat.SendMessageCommand) (chat.Message, error)
	List(ctx context.Context, cmd chat.ListMessagesCommand) (chat.Page, error)
	Get(ctx context.Context, group chat.GroupID, seq chat.Sequence) (chat.Message, error)
	Head(ctx context.Context, group chat.GroupID) (chat.Sequence, error)
	Range(ctx context.Context, group chat.GroupID, after, upTo chat.Sequence) ([]chat.Message, error)
	Latest(ctx context.Context, group chat.GroupID, n int) ([]chat.Message, error)
}

// MessageStore is the single authority for ordering inside a group.
type MessageStore struct {
	log         *slog.Logger
	repository  storage.IMessageRepository
	directory   contract.MembershipDirectory
	publisher   contract.EventPublisher
	locks       *groupLocks
	pageSize    int
	maxPageSize int
	now         func() time.Time
}

func NewMessageStore(log *slog.Logger, repository storage.IMessageRepository,
	directory contract.MembershipDirectory, publisher contract.EventPublisher,
	pageSize, maxPageSize int) *MessageStore {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if maxPageSize <= 0 {
		maxPageSize = MaxPageSize
	}
	if maxPageSize < pageSize {
		maxPageSize = pageSize
	}
	return &MessageStore{
		log:         log,
		repository:  repository,
		directory:   directory,
		publisher:   publisher,
		locks:       newGroupLocks(),
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
		now:         time.Now,
	}
}

// Append persists the message and publishes MessageAppended while still
// holding the group lock, so created events leave in sequence order.
func (s *MessageStore) Append(ctx context.Context, cmd chat.SendMessageCommand) (chat.Message, error) {
	if err := validateCommand(cmd); err != nil {
		return chat.Message{}, err
	}
	if err := cmd.Body.Validate(); err != nil {
		return chat.Message{}, err
	}
	if err := requireMember(ctx, s.directory, cmd.Group, cmd.SenderID); err != nil {
		return chat.Message{}, err
	}

	unlock := s.locks.Lock(cmd.Group)
	defer unlock()
	start := time.Now()

	message, err := s.repository.Append(chat.Message{
		Group:        cmd.Group,
		SenderID:     cmd.SenderID,
		Body:         cmd.Body,
		CreatedAt:    s.now().UTC().Round(0),
		ClientSentAt: cmd.ClientSentAt,
	})
	if err != nil {
		s.log.Error("Unable to append message", "group", cmd.Group, "sender", cmd.SenderID, "error", err)
		return chat.Message{}, err
	}
	s.publisher.Publish(ctx, event.MessageAppended{Message: message})

	observability.AppendDuration.Observe(time.Since(start).Seconds())
	observability.MessagesAppended.Inc()
	s.log.Debug("Message sent", "group", message.Group, "seq", message.Seq, "sender", message.SenderID)
	return message, nil
}

// List returns one page of the log in ascending order.
// FromNewest walks backward from the cursor (or the end of the log),
// FromOldest walks forward from the cursor (or the beginning).
func (s *MessageStore) List(_ context.Context, cmd chat.ListMessagesCommand) (chat.Page, error) {
	if err := validateCommand(cmd); err != nil {
		return chat.Page{}, err
	}
	var boundary chat.Sequence
	if cmd.Cursor != nil {
		cursor, err := chat.ParseCursor(cmd.Cursor.String())
		if err != nil {
			return chat.Page{}, err
		}
		boundary = cursor.Sequence()
	}
	limit := s.limit(cmd.Limit)

	switch cmd.Direction {
	case chat.FromOldest:
		messages, err := s.repository.After(cmd.Group, boundary, limit+1)
		if err != nil {
			return chat.Page{}, err
		}
		page := chat.Page{Messages: messages}
		if len(messages) > limit {
			page.Messages = messages[:limit]
			next := page.Messages[limit-1].Cursor()
			page.Next = &next
		}
		return page, nil
	default:
		// A zero cursor designates the position before the first message
		if cmd.Cursor != nil && boundary == 0 {
			return chat.Page{}, nil
		}
		messages, err := s.repository.Before(cmd.Group, boundary, limit+1)
		if err != nil {
			return chat.Page{}, err
		}
		page := chat.Page{Messages: messages}
		if len(messages) > limit {
			page.Messages = messages[len(messages)-limit:]
			next := page.Messages[0].Cursor()
			page.Next = &next
		}
		return page, nil
	}
}

func (s *MessageStore) Get(_ context.Context, group chat.GroupID, seq chat.Sequence) (chat.Message, error) {
	return s.repository.Get(group, seq)
}

func (s *MessageStore) Head(_ context.Context, group chat.GroupID) (chat.Sequence, error) {
	return s.repository.Head(group)
}

// Range returns the messages with after < seq <= upTo in ascending order.
func (s *MessageStore) Range(_ context.Context, group chat.GroupID, after, upTo chat.Sequence) ([]chat.Message, error) {
	if upTo <= after {
		return nil, nil
	}
	return s.repository.After(group, after, int(upTo-after))
}

// Latest returns the n most recent messages in ascending order.
func (s *MessageStore) Latest(_ context.Context, group chat.GroupID, n int) ([]chat.Message, error) {
	return s.repository.Before(group, 0, n)
}

func (s *MessageStore) limit(requested int) int {
	switch {
	case requested <= 0:
		return s.pageSize
	case requested > s.maxPageSize:
		return s.maxPageSize
	default:
		return requested
	}
}
