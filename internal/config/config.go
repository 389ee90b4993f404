package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	AppEnv     string
	ServerPort string

	StoreDriver string
	DBURL       string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBMaxConns  int32

	RedisURL     string
	RateCacheTTL time.Duration

	JWTSecret       string
	AdminSecretHash string
	CORSOrigins     []string

	DefaultRate         decimal.Decimal
	OrphanSweepInterval time.Duration
	OrphanGrace         time.Duration
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside development
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "production"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		StoreDriver:     getEnv("STORE_DRIVER", StoreDriverPostgres),
		DBURL:           getEnv("DB_URL", ""),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "tally"),
		DBPassword:      getEnv("DB_PASSWORD", "tally_dev_password"),
		DBName:          getEnv("DB_NAME", "tally"),
		RedisURL:        getEnv("REDIS_URL", ""),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		AdminSecretHash: getEnv("ADMIN_SECRET_HASH", ""),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "*")),
	}

	var errs []error

	maxConns, err := strconv.ParseInt(getEnv("DB_MAX_CONNS", "10"), 10, 32)
	if err != nil || maxConns <= 0 {
		errs = append(errs, fmt.Errorf("DB_MAX_CONNS must be a positive integer"))
	}
	cfg.DBMaxConns = int32(maxConns)

	cfg.DefaultRate, err = decimal.NewFromString(getEnv("DEFAULT_RATE", "8.4"))
	if err != nil || !cfg.DefaultRate.IsPositive() {
		errs = append(errs, fmt.Errorf("DEFAULT_RATE must be a positive number"))
	}

	cfg.RateCacheTTL, err = parseDuration("RATE_CACHE_TTL", "10m")
	errs = append(errs, err)
	cfg.OrphanSweepInterval, err = parseDuration("ORPHAN_SWEEP_INTERVAL", "15m")
	errs = append(errs, err)
	cfg.OrphanGrace, err = parseDuration("ORPHAN_GRACE", "5m")
	errs = append(errs, err)

	switch cfg.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverPostgres, StoreDriverMemory))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DatabaseURL prefers DB_URL and otherwise assembles one from the DB_* parts.
func (c *Config) DatabaseURL() string {
	if c.DBURL != "" {
		return c.DBURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration", key)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
