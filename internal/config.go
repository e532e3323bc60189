package internal

import (
	"fmt"
	"time"
)

const (
	TransportLog     = "log"
	TransportWebhook = "webhook"
)

// Config is read from the environment, an optional .env file being loaded first.
// Empty storage paths keep the log and the index in memory.
type Config struct {
	Host      string `env:"HOST,default=0.0.0.0"`
	Port      int    `env:"PORT,default=50051"`
	DebugPort int    `env:"DEBUG_PORT,default=8081"`
	LogLevel  string `env:"LOG_LEVEL,default=INFO"`

	BadgerFilepath string `env:"BADGER_FILEPATH"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	PageSize     int `env:"PAGE_SIZE,default=50"`
	MaxPageSize  int `env:"MAX_PAGE_SIZE,default=200"`
	InboxSize    int `env:"SUBSCRIBER_INBOX_SIZE,default=256"`
	ReplayWindow int `env:"REPLAY_WINDOW,default=50"`

	DispatchQueueSize   int           `env:"DISPATCH_QUEUE_SIZE,default=1024"`
	IndexQueueSize      int           `env:"INDEX_QUEUE_SIZE,default=1024"`
	NotificationWorkers int           `env:"NUMBER_OF_WORKERS,default=4"`
	PushTimeout         time.Duration `env:"PUSH_TIMEOUT,default=5s"`
	PushTransport       string        `env:"PUSH_TRANSPORT,default=log"`
	WebhookURL          string        `env:"WEBHOOK_URL"`
	WebhookSecret       string        `env:"WEBHOOK_SECRET"`
	CharReplacement     string        `env:"CHARACTER_REPLACEMENT,default=*"`

	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=10s"`
}

// Validate checks the combinations the tags cannot express.
func (c Config) Validate() error {
	switch c.PushTransport {
	case TransportLog:
	case TransportWebhook:
		if c.WebhookURL == "" {
			return fmt.Errorf("WEBHOOK_URL is required with PUSH_TRANSPORT=%s", TransportWebhook)
		}
	default:
		return fmt.Errorf("PUSH_TRANSPORT must be %q or %q, got %q", TransportLog, TransportWebhook, c.PushTransport)
	}
	if len(c.WebhookSecret) > 64 {
		return fmt.Errorf("WEBHOOK_SECRET must be at most 64 bytes long")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes long")
	}
	if _, err := CharacterRune(c.CharReplacement); err != nil {
		return err
	}
	return nil
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
