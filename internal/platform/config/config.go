package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"

	pkgstrings "campus/pkg/platform/strings"
)

const (
	defaultAddr           = ":8080"
	defaultKafkaTopic     = "campus.academic-effects"
	defaultLockTTL        = 10 * time.Second
	defaultCommandTimeout = 5 * time.Second
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	JWTSigningKey  string
	LogLevel       string
	LogFormat      string
	LockTTL        time.Duration
	CommandTimeout time.Duration

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// DatabaseConfig selects postgres stores when URL is set.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig selects distributed locks when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig selects the Kafka effect publisher when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv loads .env when present and builds the config from environment variables.
func FromEnv() (Server, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Server{}, fmt.Errorf("load .env: %w", err)
	}
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Server, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return fallback
	}

	lockTTL, err := parseDuration(get("LOCK_TTL", ""), defaultLockTTL)
	if err != nil {
		return Server{}, fmt.Errorf("LOCK_TTL: %w", err)
	}
	commandTimeout, err := parseDuration(get("COMMAND_TIMEOUT", ""), defaultCommandTimeout)
	if err != nil {
		return Server{}, fmt.Errorf("COMMAND_TIMEOUT: %w", err)
	}

	return Server{
		Addr:           get("CAMPUS_ADDR", defaultAddr),
		JWTSigningKey:  get("JWT_SIGNING_KEY", ""),
		LogLevel:       get("LOG_LEVEL", "info"),
		LogFormat:      get("LOG_FORMAT", "json"),
		LockTTL:        lockTTL,
		CommandTimeout: commandTimeout,
		Database: DatabaseConfig{
			URL:             get("DATABASE_URL", ""),
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			URL:          get("REDIS_URL", ""),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: pkgstrings.SplitList(get("KAFKA_BROKERS", ""), ","),
			Topic:   get("KAFKA_TOPIC", defaultKafkaTopic),
		},
	}, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", raw)
	}
	return d, nil
}
