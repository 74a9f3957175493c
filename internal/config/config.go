// Package config loads process configuration from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Log      LogConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Audit    AuditConfig
}

type ServerConfig struct {
	Port string `env:"SERVER_PORT" envDefault:"8000"`
	Mode string `env:"GIN_MODE" envDefault:"debug"`
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	Name     string `env:"DB_NAME" envDefault:"mdm"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
}

// DSN renders the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type JWTConfig struct {
	Secret string        `env:"JWT_SECRET" envDefault:"default_super_secret_key"`
	TTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`
}

type LogConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"text"` // json or text
	FilePath   string `env:"LOG_FILE_PATH"`
	MaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"100"` // MB
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"7"`
	MaxAge     int    `env:"LOG_MAX_AGE" envDefault:"30"` // days
	Compress   bool   `env:"LOG_COMPRESS" envDefault:"true"`
}

type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	Prefix   string `env:"REDIS_PREFIX" envDefault:"mdm"`
}

// Addr renders host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type CORSConfig struct {
	AllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
}

type AuditConfig struct {
	RetentionDays int    `env:"AUDIT_RETENTION_DAYS" envDefault:"180"`
	PruneSchedule string `env:"AUDIT_PRUNE_SCHEDULE" envDefault:"0 3 * * *"`
}

// ClientConfig is what the portal SDK and mdmctl need. The API base URL is
// the single switch; the live channel URL is derived from it.
type ClientConfig struct {
	BaseURL       string        `env:"MDM_API_BASE_URL" envDefault:"http://127.0.0.1:8000"`
	Timeout       time.Duration `env:"MDM_TIMEOUT" envDefault:"30s"`
	PingInterval  time.Duration `env:"MDM_PING_INTERVAL" envDefault:"25s"`
	MaxReconnects int           `env:"MDM_MAX_RECONNECTS" envDefault:"5"`
	LogLevel      string        `env:"MDM_LOG_LEVEL" envDefault:"warn"`
}

// Load reads the server configuration.
func Load() (*Config, error) {
	loadDotEnv()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Server.Mode == "release" && cfg.JWT.Secret == "default_super_secret_key" {
		return nil, fmt.Errorf("JWT_SECRET must be set in release mode")
	}
	return cfg, nil
}

// LoadClient reads the SDK/CLI configuration.
func LoadClient() (*ClientConfig, error) {
	loadDotEnv()
	cfg := &ClientConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse client config: %w", err)
	}
	return cfg, nil
}

func loadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
}
