package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET, required"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`

	Mongo        MongoConfig
	Redis        RedisConfig
	Workflow     WorkflowConfig
	Notification NotificationConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database string `env:"MONGO_DB,  default=workflow_system"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type WorkflowConfig struct {
	// AttachmentMaxBytes limits each decoded attachment; 0 disables the limit.
	AttachmentMaxBytes int `env:"ATTACHMENT_MAX_BYTES, default=5242880"`
	DispatchWorkers    int `env:"DISPATCH_WORKERS,     default=8"`
	HydrationLimit     int `env:"HYDRATION_LIMIT,      default=8"`
}

type NotificationConfig struct {
	PollInterval time.Duration `env:"NOTIFICATION_POLL_INTERVAL, default=30s"`
}

// IsDevelopment enables pretty console logging.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("config: TOKEN_TTL must be positive")
	}
	if cfg.Notification.PollInterval <= 0 {
		return nil, fmt.Errorf("config: NOTIFICATION_POLL_INTERVAL must be positive")
	}
	return &cfg, nil
}
