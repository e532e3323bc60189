package e2e

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "group-chat/proto/chat"
)

type testGroupChatSuite struct {
	BaseGrpcSuite
}

func TestGroupChatSuite(t *testing.T) {
	suite.Run(t, &testGroupChatSuite{})
}

func (s *testGroupChatSuite) TestSendSubscribeAndAcknowledge() {
	text := fmt.Sprintf("e2e %s", uuid.NewString())
	var (
		since       *string
		unreadStart int
		sent        pb.Message
	)

	// --- STEP 0: POSITION ---
	s.Run("Step 0: Read the head of the group and the recipient unread count", func() {
		s.WithUser("Recipient reads the newest page", s.Config.Recipient, func(ctx context.Context, client pb.ChatServiceClient) {
			page, err := client.ListMessages(ctx, &pb.ListMessagesRequest{Group: s.Config.Group, Limit: 1})
			s.Require().NoError(err)
			if len(page.Messages) > 0 {
				since = &page.Messages[0].Cursor
			}
			count, err := client.UnreadCount(ctx, &pb.UnreadCountRequest{Group: s.Config.Group})
			s.Require().NoError(err)
			unreadStart = count.Count
		})
	})

	// --- STEP 1: LIVE DELIVERY ---
	s.Run("Step 1: Recipient receives the message live", func() {
		s.WithUser("Recipient subscribes after the head", s.Config.Recipient, func(ctx context.Context, recipient pb.ChatServiceClient) {
			stream, err := recipient.Subscribe(ctx, &pb.SubscribeRequest{Group: s.Config.Group, Since: since})
			s.Require().NoError(err)

			s.WithUser("Sender posts", s.Config.Sender, func(ctx context.Context, sender pb.ChatServiceClient) {
				now := time.Now()
				resp, err := sender.SendMessage(ctx, &pb.SendMessageRequest{
					Group:        s.Config.Group,
					Body:         pb.Body{Text: text},
					ClientSentAt: &now,
				})
				s.Require().NoError(err)
				sent = resp.Message
				s.Require().Equal(s.Config.Sender, sent.SenderID)
				s.Require().Contains(sent.ReadBy, s.Config.Sender, "the sender has read their own message")
			})

			for {
				e, err := stream.Recv()
				s.Require().NoError(err)
				if e.Kind == "created" && e.Message.ID == sent.ID {
					s.Require().Equal(text, e.Message.Body.Text)
					return
				}
			}
		})
	})

	// --- STEP 2: RECEIPTS ---
	s.Run("Step 2: Receipts update the unread count", func() {
		s.WithUser("Recipient acknowledges", s.Config.Recipient, func(ctx context.Context, client pb.ChatServiceClient) {
			count, err := client.UnreadCount(ctx, &pb.UnreadCountRequest{Group: s.Config.Group})
			s.Require().NoError(err)
			s.Require().Equal(unreadStart+1, count.Count)

			delivered, err := client.MarkDelivered(ctx, &pb.MarkRequest{Group: s.Config.Group, MessageIDs: []string{sent.ID}})
			s.Require().NoError(err)
			s.Require().Equal([]string{sent.ID}, delivered.Changed)

			count, err = client.UnreadCount(ctx, &pb.UnreadCountRequest{Group: s.Config.Group})
			s.Require().NoError(err)
			s.Require().Equal(unreadStart+1, count.Count, "delivered is not read")

			read, err := client.MarkRead(ctx, &pb.MarkRequest{Group: s.Config.Group, MessageIDs: []string{sent.ID}})
			s.Require().NoError(err)
			s.Require().Equal([]string{sent.ID}, read.Changed)

			again, err := client.MarkRead(ctx, &pb.MarkRequest{Group: s.Config.Group, MessageIDs: []string{sent.ID}})
			s.Require().NoError(err)
			s.Require().Empty(again.Changed, "a second read changes nothing")

			count, err = client.UnreadCount(ctx, &pb.UnreadCountRequest{Group: s.Config.Group})
			s.Require().NoError(err)
			s.Require().Equal(unreadStart, count.Count)
		})
	})

	// --- STEP 3: ACCESS CONTROL ---
	s.Run("Step 3: Outsiders are refused", func() {
		s.WithUser("Outsider lists the group", "outsider-"+uuid.NewString()[:8], func(ctx context.Context, client pb.ChatServiceClient) {
			_, err := client.ListMessages(ctx, &pb.ListMessagesRequest{Group: s.Config.Group})
			s.Require().Equal(codes.PermissionDenied, status.Code(err))
		})
	})
}

// Keeps the suite runnable under plain `go test ./...` without a server.
func TestConfigDefaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("E2E_SERVER_ADDR", "")

	cfg, err := LoadConfig()

	req.NoError(err)
	req.Equal("e2e", cfg.Group)
	req.Equal("alice", cfg.Sender)
	req.Equal("bob", cfg.Recipient)
}
