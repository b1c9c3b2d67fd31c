package session

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/system-metaverse/system-go/pkg/world"
)

// Configuration errors.
var (
	ErrMissingServerURL = errors.New("server URL is required")
	ErrMissingRealm     = errors.New("realm is required")
)

// Config holds the session configuration. Values load from a YAML file and
// may be overridden through SYSTEM_-prefixed environment variables.
type Config struct {
	// ServerURL is the websocket endpoint of the hosted database.
	ServerURL string `yaml:"server_url" env:"SYSTEM_SERVER_URL"`

	// Realm names the server deployment. It salts identity derivation, so
	// the same account secret yields unrelated identities per realm.
	Realm string `yaml:"realm" env:"SYSTEM_REALM"`

	// AccountSecret is the credential the client identity derives from.
	AccountSecret string `yaml:"account_secret" env:"SYSTEM_ACCOUNT_SECRET"`

	// StatePath locates the local state file. Empty disables persistence.
	StatePath string `yaml:"state_path" env:"SYSTEM_STATE_PATH"`

	// StartWorld is the scope used when no saved state exists.
	StartWorld world.Coords `yaml:"start_world"`

	// PingInterval is the websocket keepalive interval.
	PingInterval time.Duration `yaml:"ping_interval" env:"SYSTEM_PING_INTERVAL"`

	// Reconnect tunes the redial backoff.
	Reconnect ReconnectConfig `yaml:"reconnect"`
}

// ReconnectConfig tunes the retry backoff after connection loss.
type ReconnectConfig struct {
	// Disabled turns automatic reconnection off.
	Disabled bool `yaml:"disabled" env:"SYSTEM_RECONNECT_DISABLED"`

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration `yaml:"initial_delay" env:"SYSTEM_RECONNECT_INITIAL_DELAY"`

	// MaxDelay caps the retry delay.
	MaxDelay time.Duration `yaml:"max_delay" env:"SYSTEM_RECONNECT_MAX_DELAY"`
}

// DefaultConfig returns a configuration with sensible defaults. The server
// URL and realm still have to be set before use.
func DefaultConfig() Config {
	return Config{
		StartWorld:   world.Origin,
		PingInterval: 30 * time.Second,
		Reconnect: ReconnectConfig{
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
		},
	}
}

// Validate checks the configuration for required fields.
func (c Config) Validate() error {
	if c.ServerURL == "" {
		return ErrMissingServerURL
	}
	if c.Realm == "" {
		return ErrMissingRealm
	}
	return nil
}

// LoadConfig reads a YAML config file, applies environment overrides and
// validates the result. A missing file is not an error; the defaults plus
// environment variables then make up the whole configuration.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// defaults + env only
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
