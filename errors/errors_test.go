package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMapToGRPCError(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "wrapped store failure", err: fmt.Errorf("%w: %v", ErrStoreUnavailable, "DB Closed"), want: codes.Unavailable},
		{name: "not a member", err: fmt.Errorf("%w: mallory in flat", ErrNotMember), want: codes.PermissionDenied},
		{name: "bad cursor", err: ErrInvalidCursor, want: codes.InvalidArgument},
		{name: "unknown message", err: ErrMessageNotFound, want: codes.NotFound},
		{name: "lagging", err: ErrSubscriberLagging, want: codes.ResourceExhausted},
		{name: "cancelled", err: context.Canceled, want: codes.Canceled},
		{name: "existing status", err: status.Error(codes.Aborted, "kept"), want: codes.Aborted},
		{name: "anything else", err: fmt.Errorf("boom"), want: codes.Internal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, status.Code(MapToGRPCError(tc.err)))
		})
	}

	require.NoError(t, MapToGRPCError(nil))
}
