package push

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/blake2b"

	"group-chat/domain/chat"
)

// SignatureHeader carries the keyed BLAKE2b-256 of the request body, hex encoded.
const SignatureHeader = "X-Chat-Signature"

type webhookPayload struct {
	EndpointID  string `json:"endpoint_id"`
	Platform    string `json:"platform"`
	Token       string `json:"token"`
	RecipientID string `json:"recipient_id"`
	Group       string `json:"group"`
	MessageID   string `json:"message_id"`
	SenderName  string `json:"sender_name"`
	Preview     string `json:"preview"`
	Lang        string `json:"lang,omitempty"`
}

// WebhookTransport posts each notification as JSON to a push gateway.
// Any non 2xx answer is a failed push.
type WebhookTransport struct {
	log    *slog.Logger
	url    string
	client *http.Client
	secret []byte
}

func NewWebhookTransport(log *slog.Logger, url string, client *http.Client) *WebhookTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookTransport{log: log, url: url, client: client}
}

// WithSecret signs every body so the gateway can authenticate the server.
// The secret is at most blake2b.Size bytes, an empty one disables signing.
func (t *WebhookTransport) WithSecret(secret string) *WebhookTransport {
	t.secret = []byte(secret)
	return t
}

func (t *WebhookTransport) Push(ctx context.Context, n chat.Notification) error {
	body, err := json.Marshal(webhookPayload{
		EndpointID:  n.EndpointID,
		Platform:    string(n.Platform),
		Token:       n.Token,
		RecipientID: string(n.RecipientID),
		Group:       string(n.Group),
		MessageID:   string(n.MessageID),
		SenderName:  n.SenderName,
		Preview:     n.Preview,
		Lang:        n.Lang,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if len(t.secret) > 0 {
		signature, err := Sign(t.secret, body)
		if err != nil {
			return err
		}
		req.Header.Set(SignatureHeader, signature)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push gateway answered %s", resp.Status)
	}
	t.log.Debug("Notification pushed", "endpoint", n.EndpointID, "status", resp.StatusCode)
	return nil
}

// Sign returns the hex encoded keyed BLAKE2b-256 of body.
func Sign(secret, body []byte) (string, error) {
	mac, err := blake2b.New256(secret)
	if err != nil {
		return "", err
	}
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil)), nil
}
