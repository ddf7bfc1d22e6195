// Package config provides server configuration loaded from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/morezero/wallet-dapp/pkg/router"
)

const logPrefix = "config:LoadConfig"

// Config holds wallet DApp configuration.
type Config struct {
	// COMMS: connect to standalone NATS at COMMSURL.
	COMMSURL  string `envconfig:"COMMS_URL" default:"nats://127.0.0.1:4222"`
	COMMSName string `envconfig:"SERVICE_NAME" default:"wallet-dapp"`
	Namespace string `envconfig:"NAMESPACE"`
	// CommsClientURL is the URL returned to clients via GET /connection (empty = COMMSURL).
	CommsClientURL string `envconfig:"NATS_CLIENT_URL"`

	// Subject overrides (empty = dapp.wallet.*)
	AdvanceSubject string `envconfig:"ADVANCE_SUBJECT"`
	InspectSubject string `envconfig:"INSPECT_SUBJECT"`
	OutputsSubject string `envconfig:"OUTPUTS_SUBJECT"`

	// Input processing
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"25s"`
	QueueSize      int           `envconfig:"QUEUE_SIZE" default:"256"`

	// Manifest and address overrides
	ManifestFile string `envconfig:"MANIFEST_FILE"`
	DAppAddress  string `envconfig:"DAPP_ADDRESS"`
	EtherPortal  string `envconfig:"ETHER_PORTAL"`
	ERC20Portal  string `envconfig:"ERC20_PORTAL"`
	ERC721Portal string `envconfig:"ERC721_PORTAL"`

	// Database (empty = in-memory ledger)
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"false"`
	MigrationPath string `envconfig:"MIGRATION_PATH"` // empty = embedded migrations

	// HTTP endpoint (HTTP_ADDR preferred, e.g. "0.0.0.0:8080")
	HTTPAddr           string        `envconfig:"HTTP_ADDR"`
	HTTPPort           int           `envconfig:"HTTP_PORT" default:"8080"`
	HealthCheckTimeout time.Duration `envconfig:"HEALTH_CHECK_TIMEOUT" default:"5s"`

	// Logging
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidateForServe checks required config when running the DApp server.
func (c *Config) ValidateForServe() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%s - REQUEST_TIMEOUT must be positive", logPrefix)
	}
	if c.HealthCheckTimeout <= 0 {
		return fmt.Errorf("%s - HEALTH_CHECK_TIMEOUT must be positive", logPrefix)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%s - QUEUE_SIZE must be positive", logPrefix)
	}
	addrs := []struct{ name, value string }{
		{"DAPP_ADDRESS", c.DAppAddress},
		{"ETHER_PORTAL", c.EtherPortal},
		{"ERC20_PORTAL", c.ERC20Portal},
		{"ERC721_PORTAL", c.ERC721Portal},
	}
	for _, a := range addrs {
		if a.value == "" {
			continue
		}
		if _, err := router.ParseAddress(a.value); err != nil {
			return fmt.Errorf("%s - %s: %w", logPrefix, a.name, err)
		}
	}
	return nil
}

// ValidateForDB checks required config when running DB-dependent commands (migrate, clear, ensure-db).
func (c *Config) ValidateForDB() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%s - DATABASE_URL is required", logPrefix)
	}
	return nil
}
