package auth

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"group-chat/domain/chat"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	nameKey   contextKey = "name"
)

// Interceptors authenticates every call except the public methods and
// injects the caller identity into the handler context.
type Interceptors struct {
	log           *slog.Logger
	authenticator *Authenticator
	publicMethods map[string]struct{}
}

func NewInterceptors(log *slog.Logger, authenticator *Authenticator, publicMethods ...string) *Interceptors {
	public := make(map[string]struct{}, len(publicMethods))
	for _, m := range publicMethods {
		public[m] = struct{}{}
	}
	return &Interceptors{log: log, authenticator: authenticator, publicMethods: public}
}

func (i *Interceptors) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if i.isPublic(info.FullMethod) {
			return handler(ctx, req)
		}
		authCtx, err := i.authenticate(ctx)
		if err != nil {
			i.log.Debug("Unauthenticated call rejected", "method", info.FullMethod, "error", err)
			return nil, err
		}
		return handler(authCtx, req)
	}
}

func (i *Interceptors) Stream() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if i.isPublic(info.FullMethod) {
			return handler(srv, ss)
		}
		authCtx, err := i.authenticate(ss.Context())
		if err != nil {
			i.log.Debug("Unauthenticated stream rejected", "method", info.FullMethod, "error", err)
			return err
		}
		return handler(srv, &authenticatedStream{ServerStream: ss, ctx: authCtx})
	}
}

func (i *Interceptors) authenticate(ctx context.Context) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "metadata is missing")
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "authorization token is missing")
	}
	tokenStr, found := strings.CutPrefix(values[0], "Bearer ")
	if !found {
		return nil, status.Error(codes.Unauthenticated, "authorization must be a bearer token")
	}
	claims, err := i.authenticator.ValidateToken(tokenStr)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}
	ctx = context.WithValue(ctx, userIDKey, chat.UserID(claims.UserID))
	return context.WithValue(ctx, nameKey, claims.Name), nil
}

func (i *Interceptors) isPublic(method string) bool {
	_, ok := i.publicMethods[method]
	return ok
}

// authenticatedStream overrides the context of a server stream.
type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context {
	return s.ctx
}

// UserIDFromContext returns the identity injected by the interceptors.
func UserIDFromContext(ctx context.Context) (chat.UserID, bool) {
	id, ok := ctx.Value(userIDKey).(chat.UserID)
	return id, ok && id != ""
}

// WithUserID is used by in-process callers that authenticated by other means.
func WithUserID(ctx context.Context, id chat.UserID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}
