package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	Data       DataConfig       `envconfig:"DATA"`
	Engine     EngineConfig     `envconfig:"ENGINE"`
	Database   DatabaseConfig   `envconfig:"DATABASE"`
	ClickHouse ClickHouseConfig `envconfig:"CLICKHOUSE"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	Telegram   TelegramConfig   `envconfig:"TELEGRAM"`
	Logging    LoggingConfig    `envconfig:"LOGGING"`
}

// DataConfig locates the raw series files and model definitions
type DataConfig struct {
	RawDir    string `envconfig:"DATA_RAW_DIR" default:"data/raw"`
	OutputDir string `envconfig:"DATA_OUTPUT_DIR" default:"data/processed"`
	ModelsDir string `envconfig:"DATA_MODELS_DIR" default:"models"`
}

// EngineConfig represents pipeline run parameters
type EngineConfig struct {
	MinPeriods      int           `envconfig:"ENGINE_MIN_PERIODS" default:"24"`
	RefreshInterval time.Duration `envconfig:"ENGINE_REFRESH_INTERVAL" default:"24h"`
	// RunOnce runs a single refresh and exits, for cron-style setups
	RunOnce bool     `envconfig:"ENGINE_RUN_ONCE" default:"false"`
	Models  []string `envconfig:"ENGINE_MODELS" default:""`
}

// DatabaseConfig represents database connection parameters
type DatabaseConfig struct {
	Host           string `envconfig:"DB_HOST" default:"localhost"`
	Port           int    `envconfig:"DB_PORT" default:"5432"`
	Name           string `envconfig:"DB_NAME" default:"regime"`
	User           string `envconfig:"DB_USER" required:"true"`
	Password       string `envconfig:"DB_PASSWORD" required:"true"`
	SSLMode        string `envconfig:"DB_SSLMODE" default:"disable"`
	MigrationsPath string `envconfig:"DB_MIGRATIONS_PATH" default:"migrations"`
}

// ClickHouseConfig represents the analytics sink connection
type ClickHouseConfig struct {
	Enabled  bool   `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	Database string `envconfig:"CLICKHOUSE_DATABASE" default:"regime"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD" required:"false"`
}

// RedisConfig represents the lock and cache backend
type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" required:"false"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// TelegramConfig represents regime alert delivery
type TelegramConfig struct {
	Enabled  bool   `envconfig:"TELEGRAM_ENABLED" default:"false"`
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"false"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID" required:"false"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" default:""`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Data.RawDir == "" {
		return fmt.Errorf("raw data directory is required")
	}
	if c.Data.ModelsDir == "" {
		return fmt.Errorf("models directory is required")
	}

	if c.Engine.MinPeriods < 2 {
		return fmt.Errorf("min_periods must be at least 2")
	}
	if c.Engine.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram bot token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram chat_id is required when telegram is enabled")
		}
	}

	if c.Redis.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("redis host is required when redis is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse host is required when clickhouse is enabled")
	}

	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetDSN returns ClickHouse connection string
func (c *ClickHouseConfig) GetDSN() string {
	return fmt.Sprintf(
		"clickhouse://%s:%s@%s:%d/%s",
		c.User, c.Password, c.Host, c.Port, c.Database,
	)
}

// Addr returns the redis host:port address
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
