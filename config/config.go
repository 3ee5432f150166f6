// Package config loads service settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")

type Config struct {
	ServerPort                   string `mapstructure:"SERVER_PORT"`
	DatabaseURL                  string `mapstructure:"DATABASE_URL"`
	RedisURL                     string `mapstructure:"REDIS_URL"`
	RateLimitPrefix              string `mapstructure:"RATE_LIMIT_PREFIX"`
	RegenerateRateLimitPerMinute int    `mapstructure:"REGENERATE_RATE_LIMIT_PER_MINUTE"`
	SessionPurgeSchedule         string `mapstructure:"SESSION_PURGE_SCHEDULE"`
	EventBufferSize              int    `mapstructure:"EVENT_BUFFER_SIZE"`
	CORSAllowedOrigins           string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	ShutdownTimeoutSeconds       int    `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS"`
}

const (
	defaultPort               = "8080"
	defaultRateLimitPrefix    = "waybook:rate_limit"
	defaultRegenerateLimit    = 10
	defaultPurgeSchedule      = "@hourly"
	defaultEventBufferSize    = 100
	defaultCORSOrigins        = "http://*,https://*"
	defaultShutdownTimeoutSec = 10
)

var keys = []string{
	"SERVER_PORT",
	"DATABASE_URL",
	"REDIS_URL",
	"RATE_LIMIT_PREFIX",
	"REGENERATE_RATE_LIMIT_PER_MINUTE",
	"SESSION_PURGE_SCHEDULE",
	"EVENT_BUFFER_SIZE",
	"CORS_ALLOWED_ORIGINS",
	"SHUTDOWN_TIMEOUT_SECONDS",
}

// Load reads the environment, falling back to a .env file in path and then to
// defaults.
func Load(path string) (Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", defaultPort)
	viper.SetDefault("RATE_LIMIT_PREFIX", defaultRateLimitPrefix)
	viper.SetDefault("REGENERATE_RATE_LIMIT_PER_MINUTE", defaultRegenerateLimit)
	viper.SetDefault("SESSION_PURGE_SCHEDULE", defaultPurgeSchedule)
	viper.SetDefault("EVENT_BUFFER_SIZE", defaultEventBufferSize)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", defaultCORSOrigins)
	viper.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)

	// Unmarshal only sees env vars that were bound or defaulted.
	for _, key := range keys {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("failed to read config file, using environment values", "error", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	cfg.normalize()
	if cfg.DatabaseURL == "" {
		return Config{}, ErrMissingDatabaseURL
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.ServerPort = strings.TrimSpace(c.ServerPort)
	if c.ServerPort == "" {
		c.ServerPort = defaultPort
	}
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)
	c.RedisURL = strings.TrimSpace(c.RedisURL)
	c.RateLimitPrefix = strings.TrimSpace(c.RateLimitPrefix)
	if c.RateLimitPrefix == "" {
		c.RateLimitPrefix = defaultRateLimitPrefix
	}
	if c.RegenerateRateLimitPerMinute < 0 {
		c.RegenerateRateLimitPerMinute = 0
	}
	c.SessionPurgeSchedule = strings.TrimSpace(c.SessionPurgeSchedule)
	if c.SessionPurgeSchedule == "" {
		c.SessionPurgeSchedule = defaultPurgeSchedule
	}
	if c.EventBufferSize <= 0 {
		c.EventBufferSize = defaultEventBufferSize
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		c.ShutdownTimeoutSeconds = defaultShutdownTimeoutSec
	}
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

func (c Config) Addr() string {
	return ":" + c.ServerPort
}
