package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"go-admin-console/pkg/database"
)

// Config holds runtime configuration read from the environment
type Config struct {
	Port    string `envconfig:"PORT" default:"3000"`
	AppName string `envconfig:"APP_NAME" default:"Admin Console API"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"admin_console"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBTimezone  string `envconfig:"DB_TIMEZONE" default:"UTC"`
	DBLogSQL    bool   `envconfig:"DB_LOG_SQL" default:"false"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	SessionPrefix string `envconfig:"SESSION_PREFIX" default:"console"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer string `envconfig:"JWT_ISSUER" default:"go-admin-console"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	SuperAdminLogin    string `envconfig:"SUPER_ADMIN_LOGIN" default:"admin"`
	SuperAdminPassword string `envconfig:"SUPER_ADMIN_PASSWORD"`
	SuperAdminName     string `envconfig:"SUPER_ADMIN_NAME" default:"Super Administrator"`

	LoginRatePerMinute int           `envconfig:"LOGIN_RATE_PER_MINUTE" default:"30"`
	LoginRateBurst     int           `envconfig:"LOGIN_RATE_BURST" default:"10"`
	SecondFactorTTL    time.Duration `envconfig:"SECOND_FACTOR_TTL" default:"5m"`
	TOTPIssuer         string        `envconfig:"TOTP_ISSUER" default:"Admin Console"`
}

// Load reads .env (when present) and decodes the environment into Config.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	found := godotenv.Load() == nil

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, found, err
	}
	if len(cfg.JWTSecret) < 16 {
		return nil, found, errors.New("JWT_SECRET must be at least 16 characters")
	}
	if cfg.LoginRatePerMinute <= 0 || cfg.LoginRateBurst <= 0 {
		return nil, found, errors.New("login rate limit must be positive")
	}
	return &cfg, found, nil
}

// DSN returns DATABASE_URL, or a DSN assembled from the DB_* settings
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return database.BuildDSN(c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBTimezone)
}
