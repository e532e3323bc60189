package workers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"group-chat/domain/chat"
	"group-chat/errors"
	"group-chat/mocks"
)

type identityMasker struct{}

func (identityMasker) Mask(text string) string { return text }

type scamMasker struct{}

func (scamMasker) Mask(text string) string { return strings.ReplaceAll(text, "scam", "****") }

type notificationFixture struct {
	members    *mocks.MockMembershipDirectory
	identities *mocks.MockIdentityProvider
	endpoints  *mocks.MockEndpointRegistry
	transport  *mocks.MockPushTransport
}

func newNotificationWorker(t *testing.T, masker PreviewMasker) (*NotificationWorker, notificationFixture) {
	ctrl := gomock.NewController(t)
	f := notificationFixture{
		members:    mocks.NewMockMembershipDirectory(ctrl),
		identities: mocks.NewMockIdentityProvider(ctrl),
		endpoints:  mocks.NewMockEndpointRegistry(ctrl),
		transport:  mocks.NewMockPushTransport(ctrl),
	}
	w := NewNotificationWorker(slog.Default(), nil, f.members, f.identities, f.endpoints, f.transport, masker, time.Second)
	return w, f
}

func TestNotificationWorker_NotifiesEveryEndpointButTheSender(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	w, f := newNotificationWorker(t, identityMasker{})
	m := chat.Message{ID: "3", Group: "flat", Seq: 3, SenderID: "alice", Body: chat.Body{Text: "Rent is due on Friday, please send your share"}}

	f.members.EXPECT().Members(gomock.Any(), chat.GroupID("flat")).Return([]chat.UserID{"alice", "bob", "carol"}, nil)
	f.identities.EXPECT().DisplayName(gomock.Any(), chat.UserID("alice")).Return("Alice", nil)
	f.endpoints.EXPECT().Endpoints(gomock.Any(), chat.UserID("bob")).Return([]chat.Endpoint{
		{ID: "e1", UserID: "bob", Platform: chat.PlatformAPNS, Token: "t1"},
		{ID: "e2", UserID: "bob", Platform: chat.PlatformFCM, Token: "t2"},
	}, nil)
	f.endpoints.EXPECT().Endpoints(gomock.Any(), chat.UserID("carol")).Return([]chat.Endpoint{
		{ID: "e3", UserID: "carol", Platform: chat.PlatformLog, Token: "t3"},
	}, nil)

	var pushed []chat.Notification
	f.transport.EXPECT().Push(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, n chat.Notification) error {
			_, hasDeadline := ctx.Deadline()
			req.True(hasDeadline)
			pushed = append(pushed, n)
			return nil
		}).Times(3)

	req.Equal(3, w.Dispatch(ctx, m))
	req.Len(pushed, 3)
	for _, n := range pushed {
		req.NotEqual(chat.UserID("alice"), n.RecipientID)
		req.Equal("Alice", n.SenderName)
		req.Equal(chat.MessageID("3"), n.MessageID)
		req.Equal(m.Body.Text, n.Preview)
	}
}

func TestNotificationWorker_PreviewIsMaskedAndTruncated(t *testing.T) {
	req := require.New(t)
	w, f := newNotificationWorker(t, scamMasker{})
	text := "this is a scam " + strings.Repeat("x", 120)
	m := chat.Message{ID: "1", Group: "flat", Seq: 1, SenderID: "alice", Body: chat.Body{Text: text}}

	f.members.EXPECT().Members(gomock.Any(), gomock.Any()).Return([]chat.UserID{"alice", "bob"}, nil)
	f.identities.EXPECT().DisplayName(gomock.Any(), gomock.Any()).Return("", nil)
	f.endpoints.EXPECT().Endpoints(gomock.Any(), chat.UserID("bob")).Return([]chat.Endpoint{{ID: "e1", Platform: chat.PlatformLog}}, nil)
	f.transport.EXPECT().Push(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n chat.Notification) error {
			req.Equal("alice", n.SenderName)
			req.True(strings.HasPrefix(n.Preview, "this is a **** "))
			req.True(strings.HasSuffix(n.Preview, "…"))
			req.Equal(chat.NotificationPreviewLength+1, len([]rune(n.Preview)))
			return nil
		})

	req.Equal(1, w.Dispatch(context.Background(), m))
}

func TestNotificationWorker_FailuresAreSwallowed(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	m := chat.Message{ID: "1", Group: "flat", Seq: 1, SenderID: "alice", Body: chat.Body{Text: "hi"}}

	t.Run("membership unavailable", func(t *testing.T) {
		w, f := newNotificationWorker(t, identityMasker{})
		f.members.EXPECT().Members(gomock.Any(), gomock.Any()).Return(nil, errors.ErrStoreUnavailable)

		req.Zero(w.Dispatch(ctx, m))
	})

	t.Run("no endpoints", func(t *testing.T) {
		w, f := newNotificationWorker(t, identityMasker{})
		f.members.EXPECT().Members(gomock.Any(), gomock.Any()).Return([]chat.UserID{"alice", "bob"}, nil)
		f.identities.EXPECT().DisplayName(gomock.Any(), gomock.Any()).Return("Alice", nil)
		f.endpoints.EXPECT().Endpoints(gomock.Any(), chat.UserID("bob")).Return(nil, nil)

		req.Zero(w.Dispatch(ctx, m))
	})

	t.Run("transport failure does not stop other pushes", func(t *testing.T) {
		w, f := newNotificationWorker(t, identityMasker{})
		f.members.EXPECT().Members(gomock.Any(), gomock.Any()).Return([]chat.UserID{"alice", "bob"}, nil)
		f.identities.EXPECT().DisplayName(gomock.Any(), gomock.Any()).Return("", fmt.Errorf("directory down"))
		f.endpoints.EXPECT().Endpoints(gomock.Any(), chat.UserID("bob")).Return([]chat.Endpoint{{ID: "e1"}, {ID: "e2"}}, nil)
		gomock.InOrder(
			f.transport.EXPECT().Push(gomock.Any(), gomock.Any()).Return(fmt.Errorf("gateway timeout")),
			f.transport.EXPECT().Push(gomock.Any(), gomock.Any()).Return(nil),
		)

		req.Equal(1, w.Dispatch(ctx, m))
	})

	t.Run("sender alone in the group", func(t *testing.T) {
		w, f := newNotificationWorker(t, identityMasker{})
		f.members.EXPECT().Members(gomock.Any(), gomock.Any()).Return([]chat.UserID{"alice"}, nil)

		req.Zero(w.Dispatch(ctx, m))
	})
}

func TestNotificationWorker_RunDrainsQueueUntilCancelled(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	members := mocks.NewMockMembershipDirectory(ctrl)
	queue := make(chan chat.Message, 2)
	w := NewNotificationWorker(slog.Default(), queue, members, nil, nil, nil, identityMasker{}, time.Second)

	handled := make(chan struct{}, 2)
	members.EXPECT().Members(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, chat.GroupID) ([]chat.UserID, error) {
			handled <- struct{}{}
			return []chat.UserID{"alice"}, nil
		}).Times(2)

	queue <- chat.Message{Group: "flat", Seq: 1, SenderID: "alice"}
	queue <- chat.Message{Group: "flat", Seq: 2, SenderID: "alice"}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- w.Run(ctx) }()

	<-handled
	<-handled
	cancel()
	req.ErrorIs(<-done, context.Canceled)
}

func TestDetectLanguage(t *testing.T) {
	req := require.New(t)

	english := "The kitchen is a mess again and nobody has taken out the rubbish since Monday. " +
		"Could everyone please clean up after themselves before the weekend, otherwise we will have to make a rota."
	french := "La cuisine est encore en désordre et personne n'a sorti les poubelles depuis lundi. " +
		"Est-ce que tout le monde pourrait ranger ses affaires avant le week-end, sinon nous ferons un planning."

	req.Equal("en", detectLanguage(english))
	req.Equal("fr", detectLanguage(french))
	req.Empty(detectLanguage("   "))
}
