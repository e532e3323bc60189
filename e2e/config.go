package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

// Config points the scenarios at a running server whose directory was
// seeded with the group and members below.
type Config struct {
	ServerAddr string `envconfig:"E2E_SERVER_ADDR"`
	JWTSecret  string `envconfig:"E2E_JWT_SECRET"`
	Group      string `envconfig:"E2E_GROUP" default:"e2e"`
	Sender     string `envconfig:"E2E_SENDER" default:"alice"`
	Recipient  string `envconfig:"E2E_RECIPIENT" default:"bob"`
	// E2E_DEBUG_JSON allows dumping full gRPC request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
