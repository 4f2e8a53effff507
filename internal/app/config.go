package app

import (
	"errors"

	"github.com/caarlos0/env/v10"
)

// Config holds the CLI-provided configuration for an App instance.
type Config struct {
	// SuitePath is a .hcl file or a directory of .hcl files with test
	// definitions.
	SuitePath string

	LogFormat string
	LogLevel  string

	// OpsPort serves /health and /metrics; 0 disables the server.
	OpsPort int

	// Workers bounds how many enabled tests run concurrently.
	Workers int
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.SuitePath == "" {
		return nil, errors.New("SuitePath is a required configuration field and cannot be empty")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &cfg, nil
}

// Env holds the environment-provided collaborator configuration.
type Env struct {
	// RedisAddr selects the Redis message bus; empty selects the in-memory
	// bus (single-process runs and development).
	RedisAddr     string `env:"PROBEGRID_REDIS_ADDR"`
	RedisPassword string `env:"PROBEGRID_REDIS_PASSWORD"`
	RedisDB       int    `env:"PROBEGRID_REDIS_DB" envDefault:"0"`

	// IncidentAPIURL enables the incident pipeline; empty disables it.
	IncidentAPIURL string `env:"PROBEGRID_INCIDENT_API_URL"`

	// WebhookAddr is the listen address of the webhook receiver; empty
	// disables the HTTP endpoint (deliveries can still be injected
	// programmatically, which is what tests do).
	WebhookAddr string `env:"PROBEGRID_WEBHOOK_ADDR"`
}

// ParseEnv reads the collaborator configuration from the environment.
func ParseEnv() (*Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return nil, err
	}
	return &e, nil
}
