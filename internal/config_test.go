package internal

import (
	"strings"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))

	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)

	req.NoError(err)
	req.NoError(cfg.Validate())
	req.Equal(50051, cfg.Port)
	req.Equal(TransportLog, cfg.PushTransport)
	req.Equal(5*time.Second, cfg.PushTimeout)
	req.Equal(256, cfg.InboxSize)
	req.Empty(cfg.BadgerFilepath)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{JWTSecret: strings.Repeat("s", 32), PushTransport: TransportLog, CharReplacement: "*"}

	testCases := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "webhook without url", modify: func(c *Config) { c.PushTransport = TransportWebhook }, wantErr: "WEBHOOK_URL"},
		{name: "webhook with url", modify: func(c *Config) {
			c.PushTransport = TransportWebhook
			c.WebhookURL = "http://gateway.local/push"
		}},
		{name: "unknown transport", modify: func(c *Config) { c.PushTransport = "pigeon" }, wantErr: "PUSH_TRANSPORT"},
		{name: "oversized webhook secret", modify: func(c *Config) { c.WebhookSecret = strings.Repeat("w", 65) }, wantErr: "WEBHOOK_SECRET"},
		{name: "short secret", modify: func(c *Config) { c.JWTSecret = "short" }, wantErr: "JWT_SECRET"},
		{name: "replacement of two characters", modify: func(c *Config) { c.CharReplacement = "**" }, wantErr: "CHARACTER_REPLACEMENT"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			cfg := valid
			tc.modify(&cfg)

			err := cfg.Validate()

			if tc.wantErr == "" {
				req.NoError(err)
				return
			}
			req.ErrorContains(err, tc.wantErr)
		})
	}
}
