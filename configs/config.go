package configs

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"masterclass.link/configs/configslog"

	"github.com/joho/godotenv"
)

// DatabaseConfig holds the postgres connection settings.
// URL takes precedence over the individual fields when set.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

// DSN returns the connection string handed to the gorm postgres driver.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, c.TimeZone)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SessionConfig struct {
	// Secret is the base64 key used by the encryptcookie middleware.
	Secret     string
	Expiration time.Duration
	CookieName string
	Secure     bool
}

type PlacesConfig struct {
	APIKey  string
	Timeout time.Duration
}

// Config is the full runtime configuration, read once at startup.
type Config struct {
	Env            string
	Port           string
	Database       DatabaseConfig
	Redis          RedisConfig
	Session        SessionConfig
	Places         PlacesConfig
	RabbitMQURL    string
	LoginRateLimit int
	BcryptCost     int
	// SeedUserEmails are provisioned as draft accounts by the seeder.
	SeedUserEmails []string
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		configslog.SLog.Debug("no .env file found, using process environment only")
	}

	secret := os.Getenv("SESSION_SECRET")
	if err := ValidateCookieKey(secret); err != nil {
		configslog.Log.Fatal("SESSION_SECRET is not usable: " + err.Error())
	}

	return &Config{
		Env:  envStr("APP_ENV", "development"),
		Port: envStr("APP_PORT", "3000"),
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     envStr("DB_HOST", "localhost"),
			Port:     envStr("DB_PORT", "5432"),
			User:     envStr("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     envStr("DB_NAME", "masterclass"),
			SSLMode:  envStr("DB_SSLMODE", "disable"),
			TimeZone: envStr("DB_TIMEZONE", "UTC"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
		Session: SessionConfig{
			Secret:     secret,
			Expiration: envDur("SESSION_EXPIRATION", 24*time.Hour),
			CookieName: envStr("SESSION_COOKIE_NAME", "masterclass_session"),
			Secure:     envBool("SESSION_COOKIE_SECURE", false),
		},
		Places: PlacesConfig{
			APIKey:  os.Getenv("GOOGLE_MAPS_API_KEY"),
			Timeout: envDur("PLACES_TIMEOUT", 5*time.Second),
		},
		RabbitMQURL:    os.Getenv("RABBITMQ_URL"),
		LoginRateLimit: envInt("LOGIN_RATE_LIMIT", 10),
		BcryptCost:     envInt("BCRYPT_COST", 12),
		SeedUserEmails: envList("SEED_USER_EMAILS"),
	}
}

// ValidateCookieKey accepts an empty key, cookie encryption is then off,
// or a base64 AES key of 16, 24 or 32 bytes.
func ValidateCookieKey(key string) error {
	if key == "" {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return fmt.Errorf("not base64: %w", err)
	}
	switch len(raw) {
	case 16, 24, 32:
		return nil
	}
	return errors.New("decoded key must be 16, 24 or 32 bytes")
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	configslog.SLog.Warnf("%s is not an integer (%q), falling back to %d", k, v, d)
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	configslog.SLog.Warnf("%s is not a duration (%q), falling back to %s", k, v, d)
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	case "0", "false", "FALSE", "False", "no", "off":
		return false
	}
	return d
}

// envList splits a comma separated variable, dropping blanks.
func envList(k string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(k), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
