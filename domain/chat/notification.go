package chat

import "time"

type Platform string

const (
	PlatformAPNS    Platform = "apns"
	PlatformFCM     Platform = "fcm"
	PlatformWebhook Platform = "webhook"
	PlatformLog     Platform = "log"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformAPNS, PlatformFCM, PlatformWebhook, PlatformLog:
		return true
	}
	return false
}

// Endpoint is a device registration able to receive push notifications.
type Endpoint struct {
	ID        string
	UserID    UserID
	Platform  Platform
	Token     string
	CreatedAt time.Time
}

type Notification struct {
	EndpointID  string
	Platform    Platform
	Token       string
	RecipientID UserID
	Group       GroupID
	MessageID   MessageID
	SenderName  string
	Preview     string
	Lang        string
}
