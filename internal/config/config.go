package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppEnv   string
	LogLevel string

	// Remote backend
	MongoURI      string
	MongoDatabase string
	RemoteTimeout time.Duration

	// Security
	JWTSecret string
	JWTExpiry time.Duration

	// Local store (optional driver switch via ENV, default: sqlite)
	LocalDBDriver     string
	LocalDBConnection string
	LocalPrefix       string

	// Uploads
	UploadMaxSize int64

	// Observability (optional)
	SentryDSN string

	// Export (S3-compatible: MinIO, AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string        // Optional: for S3-compatible services
	S3PresignExpiry time.Duration // Expiry for exported file links - default: 1 hour
}

func Load() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppEnv:   envString("APP_ENV", "development"),
		LogLevel: envString("LOG_LEVEL", "warn"),

		// Remote backend
		MongoURI:      envString("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: envString("MONGODB_DATABASE", "dashh_db"),
		RemoteTimeout: envDuration("REMOTE_TIMEOUT", 10*time.Second),

		// Security
		JWTSecret: envString("JWT_SECRET", ""),
		JWTExpiry: envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days

		// Local store
		LocalDBDriver:     envString("LOCAL_DB_DRIVER", "sqlite"),
		LocalDBConnection: envString("LOCAL_DB_CONNECTION", "~/.dashh/local.db"),
		LocalPrefix:       envString("LOCAL_PREFIX", "dashh_"),

		// Uploads
		UploadMaxSize: envInt64("UPLOAD_MAX_SIZE", 12<<20), // 12 MiB

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Export (optional - disabled when no bucket is set)
		S3Region:        envString("S3_REGION", "us-east-1"),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 1*time.Hour),
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config required env var missing: JWT_SECRET")
	}
	if c.LocalDBDriver != "sqlite" && c.LocalDBDriver != "pgx" {
		return fmt.Errorf("unsupported LOCAL_DB_DRIVER %q: use sqlite or pgx", c.LocalDBDriver)
	}
	if c.RemoteTimeout < 0 {
		return fmt.Errorf("REMOTE_TIMEOUT must not be negative")
	}
	return nil
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("config invalid integer, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// ExportEnabled reports whether an export bucket is configured.
func (c *Config) ExportEnabled() bool {
	return c.S3Bucket != ""
}
