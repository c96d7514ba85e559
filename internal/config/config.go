package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port          int    `envconfig:"PORT" default:"8080"`
	AllowedOrigin string `envconfig:"ALLOWED_ORIGIN" default:"http://127.0.0.1:3000"`

	// DBPath is the SQLite database file, created on first use. Empty
	// selects the in-memory repository (demo mode).
	DBPath string `envconfig:"DB_PATH" default:"pos.db"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	AuthSecret        string        `envconfig:"AUTH_SECRET"`
	AccessTokenTTL    time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"8h"`
	InvoiceCacheTTL   time.Duration `envconfig:"INVOICE_CACHE_TTL" default:"5m"`
	SeedAdminPassword string        `envconfig:"SEED_ADMIN_PASSWORD"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}
