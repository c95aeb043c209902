package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config is loaded once at process start and passed down by reference.
// Per-hub SMTP/IMAP credentials live in the database, not here.
type Config struct {
	Environment   string `envconfig:"ENVIRONMENT" default:"development"`
	DatabaseURL   string `envconfig:"DATABASE_URL" required:"true"`
	ZMQAddress    string `envconfig:"ZMQ_ADDRESS" default:"tcp://127.0.0.1:5555"`
	Domain        string `envconfig:"DOMAIN" default:"localhost"`
	ServerAddr    string `envconfig:"SERVER_ADDR" default:":8080"`
	WorkerMaxJobs int64  `envconfig:"WORKER_MAX_JOBS" default:"8"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
