package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the service
type Config struct {
	App            AppConfig
	Database       DatabaseConfig
	JWT            JWTConfig
	Logger         LoggerConfig
	RateLimit      RateLimitConfig
	Reconciliation ReconciliationConfig

	PermissionCacheTTL time.Duration
}

type AppConfig struct {
	Env          string
	Port         string
	CORSOrigins  []string
	CookieSecure bool
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// RateLimitConfig bounds login attempts per client address
type RateLimitConfig struct {
	Attempts   int
	Window     time.Duration
	MaxClients int
}

type ReconciliationConfig struct {
	ExcludeIncomplete bool
	SKUBatchSize      int
}

const devJWTSecret = "default_super_secret_key"

// IsRelease reports whether the service runs in production mode
func (c *Config) IsRelease() bool {
	return c.App.Env == "release" || c.App.Env == "production"
}

// DSN builds the PostgreSQL connection string
func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

// Load reads envFile (if it exists) and then the process environment.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		// A missing file is fine, the environment may already be populated.
		_ = godotenv.Load(envFile)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	env := v.GetString("APP_ENV")
	if ginMode := v.GetString("GIN_MODE"); ginMode == "release" {
		env = "release"
	}

	cfg := &Config{
		App: AppConfig{
			Env:          env,
			Port:         v.GetString("PORT"),
			CORSOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			CookieSecure: v.GetBool("COOKIE_SECURE"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetString("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("JWT_SECRET"),
			AccessTTL:  v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTTL: v.GetDuration("JWT_REFRESH_TTL"),
		},
		Logger: LoggerConfig{
			Level:    v.GetString("LOG_LEVEL"),
			Encoding: v.GetString("LOG_ENCODING"),
		},
		RateLimit: RateLimitConfig{
			Attempts:   v.GetInt("LOGIN_RATE_LIMIT"),
			Window:     v.GetDuration("LOGIN_RATE_WINDOW"),
			MaxClients: v.GetInt("LOGIN_RATE_MAX_CLIENTS"),
		},
		Reconciliation: ReconciliationConfig{
			ExcludeIncomplete: v.GetBool("RECONCILIATION_EXCLUDE_INCOMPLETE"),
			SKUBatchSize:      v.GetInt("RECONCILIATION_SKU_BATCH"),
		},
		PermissionCacheTTL: v.GetDuration("PERMISSION_CACHE_TTL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	v.SetDefault("COOKIE_SECURE", false)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_TTL", "24h")
	v.SetDefault("JWT_REFRESH_TTL", "168h")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_ENCODING", "json")

	v.SetDefault("LOGIN_RATE_LIMIT", 10)
	v.SetDefault("LOGIN_RATE_WINDOW", "1m")
	v.SetDefault("LOGIN_RATE_MAX_CLIENTS", 10000)

	v.SetDefault("PERMISSION_CACHE_TTL", "5m")

	v.SetDefault("RECONCILIATION_EXCLUDE_INCOMPLETE", false)
	v.SetDefault("RECONCILIATION_SKU_BATCH", 500)
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		if c.IsRelease() {
			return errors.New("JWT_SECRET environment variable is required in release mode")
		}
		// Development fallback only
		c.JWT.Secret = devJWTSecret
	}
	if c.IsRelease() && len(c.JWT.Secret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters in release mode")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive (access=%s, refresh=%s)", c.JWT.AccessTTL, c.JWT.RefreshTTL)
	}
	if c.Reconciliation.SKUBatchSize <= 0 {
		return fmt.Errorf("RECONCILIATION_SKU_BATCH must be positive, got %d", c.Reconciliation.SKUBatchSize)
	}
	if c.RateLimit.Attempts <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("login rate limit attempts and window must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
