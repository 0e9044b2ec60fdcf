package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RabbitURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string

	// DataStoreTimeout bounds every unit of work against the database.
	DataStoreTimeout time.Duration
	ExportTimezone   string

	GuestRateLimit  int
	GuestRateWindow time.Duration

	LogLevel       string
	LogDevelopment bool
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// ExportLocation resolves ExportTimezone, falling back to UTC+9 when the
// zone database is not available on the host.
func (c *Config) ExportLocation() *time.Location {
	loc, err := time.LoadLocation(c.ExportTimezone)
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:     getEnv("SERVER_PORT", "8082"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "club_db"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		RabbitURL:      os.Getenv("RABBITMQ_URL"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		ExportTimezone: getEnv("EXPORT_TIMEZONE", "Asia/Tokyo"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.GuestRateLimit, err = getInt("GUEST_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.DataStoreTimeout, err = getDuration("DATASTORE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.GuestRateWindow, err = getDuration("GUEST_RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.LogDevelopment, err = getBool("LOG_DEVELOPMENT", false); err != nil {
		return nil, err
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.GuestRateLimit <= 0 {
		return nil, fmt.Errorf("GUEST_RATE_LIMIT must be positive, got %d", cfg.GuestRateLimit)
	}
	if cfg.GuestRateWindow <= 0 {
		return nil, fmt.Errorf("GUEST_RATE_WINDOW must be positive, got %s", cfg.GuestRateWindow)
	}
	if cfg.DataStoreTimeout <= 0 {
		return nil, fmt.Errorf("DATASTORE_TIMEOUT must be positive, got %s", cfg.DataStoreTimeout)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	return b, nil
}
