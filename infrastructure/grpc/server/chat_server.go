package server

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"group-chat/auth"
	"group-chat/domain/chat"
	"group-chat/errors"
	pb "group-chat/proto/chat"
	"group-chat/services"
)

// ChatServer adapts the chat service to gRPC. The caller identity always
// comes from the authenticated context, never from the request.
type ChatServer struct {
	pb.UnimplementedChatServiceServer
	log         *slog.Logger
	chatService services.IChatService
}

func NewChatServer(log *slog.Logger, chatService services.IChatService) *ChatServer {
	return &ChatServer{log: log, chatService: chatService}
}

func (s *ChatServer) SendMessage(ctx context.Context, req *pb.SendMessageRequest) (*pb.SendMessageResponse, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.chatService.SendMessage(ctx, chat.SendMessageCommand{
		Group:        chat.GroupID(req.Group),
		SenderID:     caller,
		Body:         toBody(req.Body),
		ClientSentAt: req.ClientSentAt,
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.SendMessageResponse{Message: toMessage(m)}, nil
}

func (s *ChatServer) ListMessages(ctx context.Context, req *pb.ListMessagesRequest) (*pb.ListMessagesResponse, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}
	direction, err := toDirection(req.Direction)
	if err != nil {
		return nil, err
	}
	page, err := s.chatService.ListMessages(ctx, caller, chat.ListMessagesCommand{
		Group:     chat.GroupID(req.Group),
		Limit:     req.Limit,
		Cursor:    toCursor(req.Cursor),
		Direction: direction,
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	res := &pb.ListMessagesResponse{Messages: toMessages(page.Messages)}
	if page.Next != nil {
		res.Next = lo.ToPtr(page.Next.String())
	}
	return res, nil
}

// Subscribe streams the group until the client leaves or the subscription
// ends with a terminal error, which is then returned as the stream status.
// A client that stops reading fills its inbox and is terminated as lagging.
func (s *ChatServer) Subscribe(req *pb.SubscribeRequest, stream pb.ChatService_SubscribeServer) error {
	ctx := stream.Context()
	caller, err := callerOf(ctx)
	if err != nil {
		return err
	}
	sub, err := s.chatService.Subscribe(ctx, caller, chat.GroupID(req.Group), toCursor(req.Since))
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	defer sub.Cancel()
	s.log.Debug("Client subscribed", "user", caller, "group", req.Group, "subscription", sub.ID())

	for e := range sub.Events() {
		if err := stream.Send(toChatEvent(e)); err != nil {
			s.log.Warn("Failed to push event to stream",
				"user", caller, "group", req.Group, "cursor", e.Cursor, "error", err)
			return err
		}
	}
	if err := sub.Err(); err != nil && ctx.Err() == nil {
		s.log.Info("Subscription ended", "user", caller, "group", req.Group, "error", err)
		return errors.MapToGRPCError(err)
	}
	return nil
}

func (s *ChatServer) MarkDelivered(ctx context.Context, req *pb.MarkRequest) (*pb.MarkResponse, error) {
	return s.mark(ctx, req, s.chatService.MarkDelivered)
}

func (s *ChatServer) MarkRead(ctx context.Context, req *pb.MarkRequest) (*pb.MarkResponse, error) {
	return s.mark(ctx, req, s.chatService.MarkRead)
}

func (s *ChatServer) mark(ctx context.Context, req *pb.MarkRequest,
	markFn func(context.Context, chat.MarkCommand) ([]chat.MessageID, error)) (*pb.MarkResponse, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}
	changed, err := markFn(ctx, chat.MarkCommand{
		Group:       chat.GroupID(req.Group),
		MessageIDs:  lo.Map(req.MessageIDs, func(id string, _ int) chat.MessageID { return chat.MessageID(id) }),
		RecipientID: caller,
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.MarkResponse{
		Changed: lo.Map(changed, func(id chat.MessageID, _ int) string { return string(id) }),
	}, nil
}

func (s *ChatServer) UnreadCount(ctx context.Context, req *pb.UnreadCountRequest) (*pb.UnreadCountResponse, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}
	count, err := s.chatService.UnreadCount(ctx, chat.GroupID(req.Group), caller)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.UnreadCountResponse{Count: count}, nil
}

func (s *ChatServer) SearchMessages(ctx context.Context, req *pb.SearchMessagesRequest) (*pb.SearchMessagesResponse, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := s.chatService.SearchMessages(ctx, caller, chat.GroupID(req.Group), req.Query, req.Limit)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.SearchMessagesResponse{Messages: toMessages(messages)}, nil
}

func (s *ChatServer) RegisterEndpoint(ctx context.Context, req *pb.RegisterEndpointRequest) (*pb.RegisterEndpointResponse, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}
	endpoint, err := s.chatService.RegisterEndpoint(ctx, caller, chat.Platform(req.Platform), req.Token)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.RegisterEndpointResponse{EndpointID: endpoint.ID}, nil
}

func (s *ChatServer) UnregisterEndpoint(ctx context.Context, req *pb.UnregisterEndpointRequest) (*pb.UnregisterEndpointResponse, error) {
	caller, err := callerOf(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.chatService.UnregisterEndpoint(ctx, caller, req.EndpointID); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.UnregisterEndpointResponse{}, nil
}

func callerOf(ctx context.Context) (chat.UserID, error) {
	caller, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return "", errors.MapToGRPCError(errors.ErrUnauthenticated)
	}
	return caller, nil
}
