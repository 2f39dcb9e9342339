package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string        `env:"SERVER_PORT" envDefault:"8080"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	BaseURL         string        `env:"BASE_URL" envDefault:"http://localhost:3000"`
	CORSOrigins     []string      `env:"CORS_ALLOW_ORIGINS" envSeparator:","`

	Log       LogConfig `envPrefix:"LOG_"`
	Storage   StorageConfig
	Firebase  FirebaseConfig `envPrefix:"FIREBASE_"`
	Auth      AuthConfig
	Files     FileConfig
	Audit     AuditConfig `envPrefix:"AUDIT_LOG_"`
	RateLimit RateLimitConfig

	PaymentWebhookSecret string `env:"PAYMENT_WEBHOOK_SECRET"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"text"`
}

type StorageConfig struct {
	Driver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	DSN    string `env:"DATABASE_DSN" envDefault:"marketplace.db"`
}

type FirebaseConfig struct {
	ProjectID          string `env:"PROJECT_ID"`
	ServiceAccountPath string `env:"SERVICE_ACCOUNT_PATH"`
	ServiceAccountJSON string `env:"SERVICE_ACCOUNT_JSON"`
}

type AuthConfig struct {
	Provider  string        `env:"AUTH_PROVIDER" envDefault:"jwt"`
	JWTSecret string        `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"marketplace"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
}

type FileConfig struct {
	Backend       string `env:"FILE_STORAGE" envDefault:"local"`
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	Bucket        string `env:"STORAGE_BUCKET"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080/uploads"`
}

type AuditConfig struct {
	Path      string `env:"PATH" envDefault:"logs/audit.log"`
	MaxSizeMB int    `env:"MAX_SIZE_MB" envDefault:"10"`
	MaxFiles  int    `env:"MAX_FILES" envDefault:"10"`
}

type RateLimitConfig struct {
	Store      string        `env:"RATE_LIMIT_STORE" envDefault:"memory"`
	RedisURL   string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	Max        int           `env:"RATE_LIMIT_MAX" envDefault:"100"`
	Window     time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	AuthMax    int           `env:"AUTH_RATE_LIMIT_MAX" envDefault:"10"`
	AuthWindow time.Duration `env:"AUTH_RATE_LIMIT_WINDOW" envDefault:"15m"`
}

func Load() (*Config, error) {
	godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects combinations the process cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "mysql":
	case "firestore":
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for the firestore storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	switch c.Auth.Provider {
	case "jwt":
		if c.IsProduction() && c.Auth.JWTSecret == "change-me-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
	case "firebase":
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for the firebase auth provider")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.Auth.Provider)
	}

	switch c.Files.Backend {
	case "local":
	case "gcs":
		if c.Files.Bucket == "" {
			return fmt.Errorf("STORAGE_BUCKET is required for the gcs file storage")
		}
	default:
		return fmt.Errorf("unknown FILE_STORAGE %q", c.Files.Backend)
	}

	if c.RateLimit.Store != "memory" && c.RateLimit.Store != "redis" {
		return fmt.Errorf("unknown RATE_LIMIT_STORE %q", c.RateLimit.Store)
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesFirebase reports whether a Firebase app has to be initialised.
func (c *Config) UsesFirebase() bool {
	return c.Storage.Driver == "firestore" || c.Auth.Provider == "firebase" || c.Files.Backend == "gcs"
}
