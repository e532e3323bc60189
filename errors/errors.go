package errors

import (
	"context"
	goerrors "errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrEmptyWords        = fmt.Errorf("no words have been found")
	ErrNotMember         = fmt.Errorf("identity is not a member of the group")
	ErrInvalidBody       = fmt.Errorf("invalid message body")
	ErrInvalidCommand    = fmt.Errorf("invalid command")
	ErrInvalidCursor     = fmt.Errorf("invalid cursor")
	ErrStoreUnavailable  = fmt.Errorf("message store unavailable")
	ErrDispatchFailure   = fmt.Errorf("notification dispatch failure")
	ErrMessageNotFound   = fmt.Errorf("message not found")
	ErrGroupNotFound     = fmt.Errorf("group not found")
	ErrEndpointNotFound  = fmt.Errorf("endpoint not found")
	ErrSubscriberLagging = fmt.Errorf("subscriber is lagging behind, resume from the last cursor")
	ErrUnauthenticated   = fmt.Errorf("caller is not authenticated")
)

// MapToGRPCError translates domain errors into gRPC statuses.
// Errors that already carry a status are returned untouched.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case goerrors.Is(err, ErrNotMember):
		return status.Error(codes.PermissionDenied, err.Error())
	case goerrors.Is(err, ErrInvalidBody),
		goerrors.Is(err, ErrInvalidCommand),
		goerrors.Is(err, ErrInvalidCursor):
		return status.Error(codes.InvalidArgument, err.Error())
	case goerrors.Is(err, ErrMessageNotFound),
		goerrors.Is(err, ErrGroupNotFound),
		goerrors.Is(err, ErrEndpointNotFound):
		return status.Error(codes.NotFound, err.Error())
	case goerrors.Is(err, ErrStoreUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case goerrors.Is(err, ErrSubscriberLagging):
		return status.Error(codes.ResourceExhausted, err.Error())
	case goerrors.Is(err, ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case goerrors.Is(err, context.Canceled), goerrors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
