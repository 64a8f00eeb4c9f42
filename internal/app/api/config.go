package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"

	platformpostgres "github.com/Apurer/go-procurement-server/internal/platform/postgres"
	platformtemporal "github.com/Apurer/go-procurement-server/internal/platform/temporal"
)

// Config carries environment-driven settings for the API and worker processes.
type Config struct {
	Port                   string
	PostgresDSN            string
	Pool                   platformpostgres.PoolConfig
	RedisAddress           string
	RedisPassword          string
	RedisDB                int
	OrderLockTTL           time.Duration
	Temporal               platformtemporal.ClientConfig
	NotifyWebhookURL       string
	StrictStockRestoration bool
	CORSAllowedOrigins     []string
}

// LoadConfig loads an optional .env file, reads environment variables, applies defaults, and
// validates basic constraints. Variables already set in the environment win over .env.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := Config{
		Port:             envDefault("PORT", "8080"),
		PostgresDSN:      strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisAddress:     strings.TrimSpace(os.Getenv("REDIS_ADDRESS")),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		NotifyWebhookURL: strings.TrimSpace(os.Getenv("NOTIFY_WEBHOOK_URL")),
		Temporal: platformtemporal.ClientConfig{
			Address:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
			Namespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
			Disabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		},
		StrictStockRestoration: true,
		CORSAllowedOrigins:     splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}
	if raw := strings.TrimSpace(os.Getenv("STRICT_STOCK_RESTORATION")); raw != "" {
		strict, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("STRICT_STOCK_RESTORATION must be a boolean")
		}
		cfg.StrictStockRestoration = strict
	}
	var err error
	if cfg.RedisDB, err = nonNegativeInt("REDIS_DB"); err != nil {
		return Config{}, err
	}
	lockSeconds, err := nonNegativeInt("ORDER_LOCK_TTL_SECONDS")
	if err != nil {
		return Config{}, err
	}
	cfg.OrderLockTTL = time.Duration(lockSeconds) * time.Second
	if cfg.Pool.MaxOpenConns, err = nonNegativeInt("POSTGRES_MAX_OPEN_CONNS"); err != nil {
		return Config{}, err
	}
	if cfg.Pool.MaxIdleConns, err = nonNegativeInt("POSTGRES_MAX_IDLE_CONNS"); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func nonNegativeInt(key string) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
