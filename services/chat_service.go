package services

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"group-chat/contract"
	"group-chat/domain/chat"
	"group-chat/errors"
	"group-chat/infrastructure/storage"
	"group-chat/runtime"
)

const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

type IChatService interface {
	SendMessage(ctx context.Context, cmd chat.SendMessageCommand) (chat.Message, error)
	ListMessages(ctx context.Context, caller chat.UserID, cmd chat.ListMessagesCommand) (chat.Page, error)
	Subscribe(ctx context.Context, caller chat.UserID, group chat.GroupID, since *chat.Cursor) (*runtime.Subscription, error)
	MarkDelivered(ctx context.Context, cmd chat.MarkCommand) ([]chat.MessageID, error)
	MarkRead(ctx context.Context, cmd chat.MarkCommand) ([]chat.MessageID, error)
	UnreadCount(ctx context.Context, group chat.GroupID, caller chat.UserID) (int, error)
	SearchMessages(ctx context.Context, caller chat.UserID, group chat.GroupID, query string, limit int) ([]chat.Message, error)
	RegisterEndpoint(ctx context.Context, caller chat.UserID, platform chat.Platform, token string) (chat.Endpoint, error)
	UnregisterEndpoint(ctx context.Context, caller chat.UserID, endpointID string) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, group chat.GroupID, since *chat.Cursor) (*runtime.Subscription, error)
}

// ChatService is what the transport layer talks to. Every read of a group
// goes through a membership check, writes are checked by the store and the tracker.
type ChatService struct {
	log        *slog.Logger
	store      IMessageStore
	tracker    ITracker
	hub        Subscriber
	index      storage.ISearchIndex
	dispatcher *Dispatcher
	directory  contract.MembershipDirectory
}

func NewChatService(log *slog.Logger, store IMessageStore, tracker ITracker, hub Subscriber,
	index storage.ISearchIndex, dispatcher *Dispatcher, directory contract.MembershipDirectory) *ChatService {
	return &ChatService{
		log:        log,
		store:      store,
		tracker:    tracker,
		hub:        hub,
		index:      index,
		dispatcher: dispatcher,
		directory:  directory,
	}
}

func (s *ChatService) SendMessage(ctx context.Context, cmd chat.SendMessageCommand) (chat.Message, error) {
	return s.store.Append(ctx, cmd)
}

func (s *ChatService) ListMessages(ctx context.Context, caller chat.UserID, cmd chat.ListMessagesCommand) (chat.Page, error) {
	if err := validateCommand(cmd); err != nil {
		return chat.Page{}, err
	}
	if err := requireMember(ctx, s.directory, cmd.Group, caller); err != nil {
		return chat.Page{}, err
	}
	return s.store.List(ctx, cmd)
}

func (s *ChatService) Subscribe(ctx context.Context, caller chat.UserID, group chat.GroupID, since *chat.Cursor) (*runtime.Subscription, error) {
	if err := validateIdentity(string(group)); err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.directory, group, caller); err != nil {
		return nil, err
	}
	return s.hub.Subscribe(ctx, group, since)
}

func (s *ChatService) MarkDelivered(ctx context.Context, cmd chat.MarkCommand) ([]chat.MessageID, error) {
	return s.tracker.MarkDelivered(ctx, cmd)
}

func (s *ChatService) MarkRead(ctx context.Context, cmd chat.MarkCommand) ([]chat.MessageID, error) {
	return s.tracker.MarkRead(ctx, cmd)
}

func (s *ChatService) UnreadCount(ctx context.Context, group chat.GroupID, caller chat.UserID) (int, error) {
	return s.tracker.UnreadCount(ctx, group, caller)
}

// SearchMessages returns the matching messages best first. Hits the store
// no longer knows about are skipped.
func (s *ChatService) SearchMessages(ctx context.Context, caller chat.UserID, group chat.GroupID, query string, limit int) ([]chat.Message, error) {
	if err := validateIdentity(string(group)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty search query", errors.ErrInvalidCommand)
	}
	if err := requireMember(ctx, s.directory, group, caller); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = DefaultSearchLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}

	seqs, err := s.index.Search(ctx, group, query, limit)
	if err != nil {
		return nil, err
	}
	messages := make([]chat.Message, 0, len(seqs))
	for _, seq := range seqs {
		m, err := s.store.Get(ctx, group, seq)
		if goerrors.Is(err, errors.ErrMessageNotFound) {
			s.log.Debug("Search hit without message", "group", group, "seq", seq)
			continue
		}
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func (s *ChatService) RegisterEndpoint(ctx context.Context, caller chat.UserID, platform chat.Platform, token string) (chat.Endpoint, error) {
	return s.dispatcher.RegisterEndpoint(ctx, caller, platform, token)
}

func (s *ChatService) UnregisterEndpoint(ctx context.Context, caller chat.UserID, endpointID string) error {
	return s.dispatcher.UnregisterEndpoint(ctx, caller, endpointID)
}
