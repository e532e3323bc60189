package workers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"

	"group-chat/contract"
	"group-chat/domain/chat"
	"group-chat/errors"
	"group-chat/observability"
)

type PreviewMasker interface {
	Mask(text string) string
}

// NotificationWorker drains the dispatch queue and pushes one notification
// per endpoint of every member but the sender. Failures are logged and counted,
// Run only returns when its context ends.
type NotificationWorker struct {
	log         *slog.Logger
	queue       <-chan chat.Message
	members     contract.MembershipDirectory
	identities  contract.IdentityProvider
	endpoints   contract.EndpointRegistry
	transport   contract.PushTransport
	masker      PreviewMasker
	pushTimeout time.Duration
}

func NewNotificationWorker(
	log *slog.Logger,
	queue <-chan chat.Message,
	members contract.MembershipDirectory,
	identities contract.IdentityProvider,
	endpoints contract.EndpointRegistry,
	transport contract.PushTransport,
	masker PreviewMasker,
	pushTimeout time.Duration,
) *NotificationWorker {
	return &NotificationWorker{
		log:         log,
		queue:       queue,
		members:     members,
		identities:  identities,
		endpoints:   endpoints,
		transport:   transport,
		masker:      masker,
		pushTimeout: pushTimeout,
	}
}

func (w *NotificationWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-w.queue:
			if !ok {
				w.log.Debug("Notification queue closed")
				return nil
			}
			w.Dispatch(ctx, m)
		}
	}
}

// Dispatch notifies the recipients of one message and reports how many pushes succeeded.
func (w *NotificationWorker) Dispatch(ctx context.Context, m chat.Message) int {
	members, err := w.members.Members(ctx, m.Group)
	if err != nil {
		w.log.Warn("Unable to resolve recipients", "group", m.Group, "seq", m.Seq,
			"error", fmt.Errorf("%w: %v", errors.ErrDispatchFailure, err))
		return 0
	}
	recipients := lo.Without(members, m.SenderID)
	if len(recipients) == 0 {
		return 0
	}

	senderName := w.senderName(ctx, m.SenderID)
	preview := chat.Preview(w.masker.Mask(m.Body.Summary()), chat.NotificationPreviewLength)
	lang := detectLanguage(m.Body.Text)

	sent := 0
	for _, recipient := range recipients {
		endpoints, err := w.endpoints.Endpoints(ctx, recipient)
		if err != nil {
			w.log.Warn("Unable to resolve endpoints", "recipient", recipient,
				"error", fmt.Errorf("%w: %v", errors.ErrDispatchFailure, err))
			continue
		}
		for _, endpoint := range endpoints {
			n := chat.Notification{
				EndpointID:  endpoint.ID,
				Platform:    endpoint.Platform,
				Token:       endpoint.Token,
				RecipientID: recipient,
				Group:       m.Group,
				MessageID:   m.ID,
				SenderName:  senderName,
				Preview:     preview,
				Lang:        lang,
			}
			if err := w.push(ctx, n); err != nil {
				observability.NotificationsPushed.WithLabelValues(string(endpoint.Platform), "failed").Inc()
				w.log.Warn("Push failed", "recipient", recipient, "endpoint", endpoint.ID,
					"error", fmt.Errorf("%w: %v", errors.ErrDispatchFailure, err))
				continue
			}
			observability.NotificationsPushed.WithLabelValues(string(endpoint.Platform), "sent").Inc()
			sent++
		}
	}
	w.log.Debug("Message dispatched", "group", m.Group, "seq", m.Seq, "recipients", len(recipients), "pushes", sent)
	return sent
}

func (w *NotificationWorker) push(ctx context.Context, n chat.Notification) error {
	pushCtx, cancel := context.WithTimeout(ctx, w.pushTimeout)
	defer cancel()
	return w.transport.Push(pushCtx, n)
}

// senderName falls back to the identity itself when no display name is known.
func (w *NotificationWorker) senderName(ctx context.Context, sender chat.UserID) string {
	name, err := w.identities.DisplayName(ctx, sender)
	if err != nil {
		w.log.Debug("Display name unavailable", "user", sender, "error", err)
		return string(sender)
	}
	if strings.TrimSpace(name) == "" {
		return string(sender)
	}
	return name
}

// detectLanguage returns the ISO 639-1 code of the text, empty when unsure.
func detectLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.Iso6391()
}
