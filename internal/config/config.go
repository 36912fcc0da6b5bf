package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all process configuration, loaded from the environment with
// an optional .env file on top.
type Config struct {
	DiscordToken  string `env:"DISCORD_TOKEN,required"`
	YouTubeAPIKey string `env:"YOUTUBE_API_KEY"`
	StoragePath   string `env:"STORAGE_PATH" envDefault:"guilds.json"`

	MaxFastResults int `env:"MAX_FAST_RESULTS" envDefault:"5"`
	MaxQueryLength int `env:"MAX_QUERY_LENGTH" envDefault:"100"`

	CacheMaxEntries   int           `env:"CACHE_MAX_ENTRIES" envDefault:"1000"`
	CacheDefaultTTL   time.Duration `env:"CACHE_DEFAULT_TTL" envDefault:"30m"`
	CacheDirectURLTTL time.Duration `env:"CACHE_DIRECT_URL_TTL" envDefault:"1h"`
	CacheFallbackTTL  time.Duration `env:"CACHE_FALLBACK_TTL" envDefault:"15m"`

	ResolverTimeout       time.Duration `env:"RESOLVER_TIMEOUT" envDefault:"8s"`
	ResolverQuotaCooldown time.Duration `env:"RESOLVER_QUOTA_COOLDOWN" envDefault:"10m"`

	PreprocessingEnabled bool     `env:"PREPROCESSING_ENABLED" envDefault:"true"`
	FillerWords          []string `env:"FILLER_WORDS" envSeparator:","`

	CacheSweepInterval  time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"10m"`
	HealthCheckInterval time.Duration `env:"HEALTH_CHECK_INTERVAL" envDefault:"5m"`
	IdleDisconnectDelay time.Duration `env:"IDLE_DISCONNECT_DELAY" envDefault:"2m"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// New loads the configuration. A missing .env file is not an error; the
// system environment always applies.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using system environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return cfg, nil
}
