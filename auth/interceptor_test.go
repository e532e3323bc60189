package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"group-chat/domain/chat"
)

const (
	protectedMethod = "/chat.v1.ChatService/SendMessage"
	publicMethod    = "/grpc.health.v1.Health/Check"
)

type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeStream) Context() context.Context { return s.ctx }

func newTestInterceptors() (*Interceptors, *Authenticator) {
	a := NewAuthenticator(testSecret, time.Hour)
	return NewInterceptors(slog.Default(), a, publicMethod), a
}

func withBearer(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
}

func TestUnaryInterceptor(t *testing.T) {
	// The handler hands back the context it received
	echoCtx := func(ctx context.Context, _ any) (any, error) {
		return ctx, nil
	}
	interceptors, authenticator := newTestInterceptors()
	unary := interceptors.Unary()

	t.Run("public methods need no token", func(t *testing.T) {
		req := require.New(t)

		res, err := unary(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: publicMethod}, echoCtx)

		req.NoError(err)
		req.NotNil(res)
	})

	t.Run("missing metadata", func(t *testing.T) {
		req := require.New(t)

		_, err := unary(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: protectedMethod}, echoCtx)

		req.Equal(codes.Unauthenticated, status.Code(err))
	})

	t.Run("not a bearer token", func(t *testing.T) {
		req := require.New(t)
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Basic abc"))

		_, err := unary(ctx, nil, &grpc.UnaryServerInfo{FullMethod: protectedMethod}, echoCtx)

		req.Equal(codes.Unauthenticated, status.Code(err))
	})

	t.Run("invalid token", func(t *testing.T) {
		req := require.New(t)

		_, err := unary(withBearer("invalid-token-string"), nil, &grpc.UnaryServerInfo{FullMethod: protectedMethod}, echoCtx)

		req.Equal(codes.Unauthenticated, status.Code(err))
		req.Contains(err.Error(), "invalid or expired token")
	})

	t.Run("valid token injects the caller", func(t *testing.T) {
		req := require.New(t)
		token, err := authenticator.GenerateToken("bob", "Bob")
		req.NoError(err)

		res, err := unary(withBearer(token), nil, &grpc.UnaryServerInfo{FullMethod: protectedMethod}, echoCtx)

		req.NoError(err)
		id, ok := UserIDFromContext(res.(context.Context))
		req.True(ok)
		req.Equal(chat.UserID("bob"), id)
	})
}

func TestStreamInterceptor(t *testing.T) {
	req := require.New(t)
	interceptors, authenticator := newTestInterceptors()
	stream := interceptors.Stream()
	info := &grpc.StreamServerInfo{FullMethod: "/chat.v1.ChatService/Subscribe", IsServerStream: true}

	var seen chat.UserID
	handler := func(_ any, ss grpc.ServerStream) error {
		seen, _ = UserIDFromContext(ss.Context())
		return nil
	}

	err := stream(nil, &fakeStream{ctx: context.Background()}, info, handler)
	req.Equal(codes.Unauthenticated, status.Code(err))
	req.Empty(seen)

	token, err := authenticator.GenerateToken("carol", "")
	req.NoError(err)
	req.NoError(stream(nil, &fakeStream{ctx: withBearer(token)}, info, handler))
	req.Equal(chat.UserID("carol"), seen)
}

func TestUserIDFromContext(t *testing.T) {
	req := require.New(t)

	_, ok := UserIDFromContext(context.Background())
	req.False(ok)

	id, ok := UserIDFromContext(WithUserID(context.Background(), "dave"))
	req.True(ok)
	req.Equal(chat.UserID("dave"), id)
}
