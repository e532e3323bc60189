package chat

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ChatService_SendMessage_FullMethodName        = "/chat.v1.ChatService/SendMessage"
	ChatService_ListMessages_FullMethodName       = "/chat.v1.ChatService/ListMessages"
	ChatService_Subscribe_FullMethodName          = "/chat.v1.ChatService/Subscribe"
	ChatService_MarkDelivered_FullMethodName      = "/chat.v1.ChatService/MarkDelivered"
	ChatService_MarkRead_FullMethodName           = "/chat.v1.ChatService/MarkRead"
	ChatService_UnreadCount_FullMethodName        = "/chat.v1.ChatService/UnreadCount"
	ChatService_SearchMessages_FullMethodName     = "/chat.v1.ChatService/SearchMessages"
	ChatService_RegisterEndpoint_FullMethodName   = "/chat.v1.ChatService/RegisterEndpoint"
	ChatService_UnregisterEndpoint_FullMethodName = "/chat.v1.ChatService/UnregisterEndpoint"
)

type ChatService_SubscribeServer = grpc.ServerStreamingServer[ChatEvent]
type ChatService_SubscribeClient = grpc.ServerStreamingClient[ChatEvent]

type ChatServiceServer interface {
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error)
	Subscribe(*SubscribeRequest, ChatService_SubscribeServer) error
	MarkDelivered(context.Context, *MarkRequest) (*MarkResponse, error)
	MarkRead(context.Context, *MarkRequest) (*MarkResponse, error)
	UnreadCount(context.Context, *UnreadCountRequest) (*UnreadCountResponse, error)
	SearchMessages(context.Context, *SearchMessagesRequest) (*SearchMessagesResponse, error)
	RegisterEndpoint(context.Context, *RegisterEndpointRequest) (*RegisterEndpointResponse, error)
	UnregisterEndpoint(context.Context, *UnregisterEndpointRequest) (*UnregisterEndpointResponse, error)
	mustEmbedUnimplementedChatServiceServer()
}

// UnimplementedChatServiceServer must be embedded by implementations.
type UnimplementedChatServiceServer struct{}

func (UnimplementedChatServiceServer) SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendMessage not implemented")
}
func (UnimplementedChatServiceServer) ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListMessages not implemented")
}
func (UnimplementedChatServiceServer) Subscribe(*SubscribeRequest, ChatService_SubscribeServer) error {
	return status.Error(codes.Unimplemented, "method Subscribe not implemented")
}
func (UnimplementedChatServiceServer) MarkDelivered(context.Context, *MarkRequest) (*MarkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method MarkDelivered not implemented")
}
func (UnimplementedChatServiceServer) MarkRead(context.Context, *MarkRequest) (*MarkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method MarkRead not implemented")
}
func (UnimplementedChatServiceServer) UnreadCount(context.Context, *UnreadCountRequest) (*UnreadCountResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UnreadCount not implemented")
}
func (UnimplementedChatServiceServer) SearchMessages(context.Context, *SearchMessagesRequest) (*SearchMessagesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SearchMessages not implemented")
}
func (UnimplementedChatServiceServer) RegisterEndpoint(context.Context, *RegisterEndpointRequest) (*RegisterEndpointResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RegisterEndpoint not implemented")
}
func (UnimplementedChatServiceServer) UnregisterEndpoint(context.Context, *UnregisterEndpointRequest) (*UnregisterEndpointResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UnregisterEndpoint not implemented")
}
func (UnimplementedChatServiceServer) mustEmbedUnimplementedChatServiceServer() {}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ChatService_ServiceDesc, srv)
}

// unaryHandler decodes the request and runs the call through the interceptor chain.
func unaryHandler[Req, Resp any](method string, call func(ChatServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ChatServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ChatServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func _ChatService_Subscribe_Handler(srv any, stream grpc.ServerStream) error {
	m := new(SubscribeRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ChatServiceServer).Subscribe(m, &grpc.GenericServerStream[SubscribeRequest, ChatEvent]{ServerStream: stream})
}

var ChatService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "chat.v1.ChatService",
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendMessage", Handler: unaryHandler(ChatService_SendMessage_FullMethodName, ChatServiceServer.SendMessage)},
		{MethodName: "ListMessages", Handler: unaryHandler(ChatService_ListMessages_FullMethodName, ChatServiceServer.ListMessages)},
		{MethodName: "MarkDelivered", Handler: unaryHandler(ChatService_MarkDelivered_FullMethodName, ChatServiceServer.MarkDelivered)},
		{MethodName: "MarkRead", Handler: unaryHandler(ChatService_MarkRead_FullMethodName, ChatServiceServer.MarkRead)},
		{MethodName: "UnreadCount", Handler: unaryHandler(ChatService_UnreadCount_FullMethodName, ChatServiceServer.UnreadCount)},
		{MethodName: "SearchMessages", Handler: unaryHandler(ChatService_SearchMessages_FullMethodName, ChatServiceServer.SearchMessages)},
		{MethodName: "RegisterEndpoint", Handler: unaryHandler(ChatService_RegisterEndpoint_FullMethodName, ChatServiceServer.RegisterEndpoint)},
		{MethodName: "UnregisterEndpoint", Handler: unaryHandler(ChatService_UnregisterEndpoint_FullMethodName, ChatServiceServer.UnregisterEndpoint)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       _ChatService_Subscribe_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "chat/v1/chat.proto",
}

type ChatServiceClient interface {
	SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error)
	ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*ListMessagesResponse, error)
	Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (ChatService_SubscribeClient, error)
	MarkDelivered(ctx context.Context, in *MarkRequest, opts ...grpc.CallOption) (*MarkResponse, error)
	MarkRead(ctx context.Context, in *MarkRequest, opts ...grpc.CallOption) (*MarkResponse, error)
	UnreadCount(ctx context.Context, in *UnreadCountRequest, opts ...grpc.CallOption) (*UnreadCountResponse, error)
	SearchMessages(ctx context.Context, in *SearchMessagesRequest, opts ...grpc.CallOption) (*SearchMessagesResponse, error)
	RegisterEndpoint(ctx context.Context, in *RegisterEndpointRequest, opts ...grpc.CallOption) (*RegisterEndpointResponse, error)
	UnregisterEndpoint(ctx context.Context, in *UnregisterEndpointRequest, opts ...grpc.CallOption) (*UnregisterEndpointResponse, error)
}

type chatServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewChatServiceClient returns a client whose calls always use the json codec.
func NewChatServiceClient(cc grpc.ClientConnInterface) ChatServiceClient {
	return &chatServiceClient{cc}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.StaticMethod(), grpc.CallContentSubtype(Codec)}, opts...)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *chatServiceClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	return invoke[SendMessageResponse](ctx, c.cc, ChatService_SendMessage_FullMethodName, in, opts)
}

func (c *chatServiceClient) ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*ListMessagesResponse, error) {
	return invoke[ListMessagesResponse](ctx, c.cc, ChatService_ListMessages_FullMethodName, in, opts)
}

func (c *chatServiceClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (ChatService_SubscribeClient, error) {
	stream, err := c.cc.NewStream(ctx, &ChatService_ServiceDesc.Streams[0], ChatService_Subscribe_FullMethodName, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[SubscribeRequest, ChatEvent]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *chatServiceClient) MarkDelivered(ctx context.Context, in *MarkRequest, opts ...grpc.CallOption) (*MarkResponse, error) {
	return invoke[MarkResponse](ctx, c.cc, ChatService_MarkDelivered_FullMethodName, in, opts)
}

func (c *chatServiceClient) MarkRead(ctx context.Context, in *MarkRequest, opts ...grpc.CallOption) (*MarkResponse, error) {
	return invoke[MarkResponse](ctx, c.cc, ChatService_MarkRead_FullMethodName, in, opts)
}

func (c *chatServiceClient) UnreadCount(ctx context.Context, in *UnreadCountRequest, opts ...grpc.CallOption) (*UnreadCountResponse, error) {
	return invoke[UnreadCountResponse](ctx, c.cc, ChatService_UnreadCount_FullMethodName, in, opts)
}

func (c *chatServiceClient) SearchMessages(ctx context.Context, in *SearchMessagesRequest, opts ...grpc.CallOption) (*SearchMessagesResponse, error) {
	return invoke[SearchMessagesResponse](ctx, c.cc, ChatService_SearchMessages_FullMethodName, in, opts)
}

func (c *chatServiceClient) RegisterEndpoint(ctx context.Context, in *RegisterEndpointRequest, opts ...grpc.CallOption) (*RegisterEndpointResponse, error) {
	return invoke[RegisterEndpointResponse](ctx, c.cc, ChatService_RegisterEndpoint_FullMethodName, in, opts)
}

func (c *chatServiceClient) UnregisterEndpoint(ctx context.Context, in *UnregisterEndpointRequest, opts ...grpc.CallOption) (*UnregisterEndpointResponse, error) {
	return invoke[UnregisterEndpointResponse](ctx, c.cc, ChatService_UnregisterEndpoint_FullMethodName, in, opts)
}
