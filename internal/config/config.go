package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// ----------------------------
	// Sending
	// ----------------------------
	PacingInterval time.Duration `envconfig:"PACING_INTERVAL" default:"1s"`
	SendTimeout    time.Duration `envconfig:"SEND_TIMEOUT" default:"30s"`
	FetchTimeout   time.Duration `envconfig:"ATTACHMENT_FETCH_TIMEOUT" default:"20s"`

	// ----------------------------
	// Persistence retry
	// ----------------------------
	PersistMaxElapsed time.Duration `envconfig:"PERSIST_RETRY_MAX_ELAPSED" default:"10s"`

	// ----------------------------
	// Janitor
	// ----------------------------
	JanitorInterval time.Duration `envconfig:"JANITOR_INTERVAL" default:"1m"`
	StaleJobGrace   time.Duration `envconfig:"STALE_JOB_GRACE" default:"30m"`

	// ----------------------------
	// HTTP API
	// ----------------------------
	APIPort string `envconfig:"API_PORT" default:"8080"`

	// ----------------------------
	// Metrics
	// ----------------------------
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`

	// ----------------------------
	// Database
	// ----------------------------
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// ----------------------------
	// Secrets
	// ----------------------------
	// Hex-encoded 256-bit key for transport credentials at rest.
	TransportSecretKey string `envconfig:"TRANSPORT_SECRET_KEY" required:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return &cfg, err
}
