// Package config loads server settings from the environment. A .env file in
// the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

const (
	defaultPort      = 3100
	defaultCacheTTL  = 30 * time.Second
	defaultS3Region  = "garage"
	defaultBodyLimit = 1024 * 1024
	defaultLogLevel  = "info"
	defaultTopicName = "note.changed"
)

type Config struct {
	Port      int
	BodyLimit int
	LogLevel  string

	// Empty means the in-memory store.
	DatabaseURL string

	// Empty disables the list cache.
	RedisURL string
	CacheTTL time.Duration

	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string
	S3Region    string
	// Empty disables the download archive.
	S3Bucket string

	NoteEventsTopicName string
}

// Error collects every configuration problem found by Validate.
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid configuration:\n  - %s", strings.Join(e.Problems, "\n  - "))
}

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	// a missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	var problems []string

	cfg := &Config{
		LogLevel:            strings.ToLower(getEnvOrDefault("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:         strings.TrimSpace(os.Getenv("DB_CONNECTION_STRING")),
		RedisURL:            strings.TrimSpace(os.Getenv("REDIS_URL")),
		S3AccessKey:         strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
		S3SecretKey:         strings.TrimSpace(os.Getenv("S3_SECRET_KEY")),
		S3Endpoint:          strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		S3Region:            getEnvOrDefault("S3_REGION", defaultS3Region),
		S3Bucket:            strings.TrimSpace(os.Getenv("S3_BUCKET")),
		NoteEventsTopicName: getEnvOrDefault("NOTE_EVENTS_TOPIC_NAME", defaultTopicName),
	}

	var err error
	if cfg.Port, err = parseIntOrDefault("PORT", defaultPort); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.BodyLimit, err = parseIntOrDefault("BODY_LIMIT", defaultBodyLimit); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.CacheTTL, err = parseDurationOrDefault("CACHE_TTL", defaultCacheTTL); err != nil {
		problems = append(problems, err.Error())
	}

	if err := cfg.Validate(); err != nil {
		if cfgErr, ok := err.(*Error); ok {
			problems = append(problems, cfgErr.Problems...)
		}
	}
	if len(problems) > 0 {
		return nil, &Error{Problems: problems}
	}

	return cfg, nil
}

// Validate checks ranges and settings that only make sense together.
func (c *Config) Validate() error {
	var problems []string

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.BodyLimit <= 0 {
		problems = append(problems, fmt.Sprintf("BODY_LIMIT must be positive, got %d", c.BodyLimit))
	}
	if c.RedisURL != "" && c.CacheTTL <= 0 {
		problems = append(problems, "CACHE_TTL must be positive when REDIS_URL is set")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if c.NoteEventsTopicName == "" {
		problems = append(problems, "NOTE_EVENTS_TOPIC_NAME must not be empty")
	}

	if c.ArchiveEnabled() {
		if c.S3Endpoint == "" {
			problems = append(problems, "S3_ENDPOINT is required when S3_BUCKET is set")
		}
		if c.S3AccessKey == "" {
			problems = append(problems, "S3_ACCESS_KEY is required when S3_BUCKET is set")
		}
		if c.S3SecretKey == "" {
			problems = append(problems, "S3_SECRET_KEY is required when S3_BUCKET is set")
		}
	}

	if len(problems) > 0 {
		return &Error{Problems: problems}
	}
	return nil
}

func (c *Config) ArchiveEnabled() bool {
	return c.S3Bucket != ""
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ParseLogLevel maps LOG_LEVEL names onto fiber's log levels.
func ParseLogLevel(level string) (log.Level, error) {
	switch strings.ToLower(level) {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "", "info":
		return log.LevelInfo, nil
	case "warn", "warning":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	default:
		return log.LevelInfo, fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", level)
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseIntOrDefault(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func parseDurationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s must be a duration like 30s, got %q", key, v)
	}
	return d, nil
}
