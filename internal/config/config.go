package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ServerAddr    string

	LockTTL       time.Duration
	SnapTolerance float64
	CursorRate    int
	ConnectionTTL time.Duration
	SweepInterval time.Duration
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "puzzlehive")
		pass := getenv("POSTGRES_PASSWORD", "puzzlehive_pass")
		db := getenv("POSTGRES_DB", "puzzlehive")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	return &Config{
		DatabaseURL:   dsn,
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       parseInt(getenv("REDIS_DB", "0"), 0),
		ServerAddr:    getenv("SERVER_ADDR", "0.0.0.0:8080"),
		LockTTL:       parseDuration(getenv("PIECE_LOCK_TTL", "5m"), 5*time.Minute),
		SnapTolerance: parseFloat(getenv("SNAP_TOLERANCE", "20"), 20),
		CursorRate:    parseInt(getenv("CURSOR_RATE_LIMIT", "10"), 10),
		ConnectionTTL: parseDuration(getenv("CONNECTION_TTL", "90s"), 90*time.Second),
		SweepInterval: parseDuration(getenv("LOCK_SWEEP_INTERVAL", "30s"), 30*time.Second),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}

func parseFloat(val string, def float64) float64 {
	if val == "" {
		return def
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return def
	}
	return f
}
