package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vytor/studyflash/internal/logger"
)

type Config struct {
	Addr               string
	DBPath             string
	LogLevel           string
	OutcomeWorkerCount int
	OutcomeQueueSize   int
	DefaultDeckLimit   int
	MaxDeckLimit       int
	SessionIdleTimeout time.Duration
	RedisURL           string
	CORSAllowedOrigins []string
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or unparsable.
func Load() Config {
	// Missing .env is normal outside development.
	_ = godotenv.Load()

	return Config{
		Addr:               envOr("ADDR", ":8080"),
		DBPath:             envOr("DB_PATH", "file:studyflash.db"),
		LogLevel:           envOr("LOG_LEVEL", "INFO"),
		OutcomeWorkerCount: envIntOr("OUTCOME_WORKER_COUNT", 2),
		OutcomeQueueSize:   envIntOr("OUTCOME_QUEUE_SIZE", 256),
		DefaultDeckLimit:   envIntOr("DEFAULT_DECK_LIMIT", 20),
		MaxDeckLimit:       envIntOr("MAX_DECK_LIMIT", 200),
		SessionIdleTimeout: envDurationOr("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		RedisURL:           os.Getenv("REDIS_URL"),
		CORSAllowedOrigins: envListOr("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "ADDR cannot be empty")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		problems = append(problems, "DB_PATH cannot be empty")
	}
	if _, ok := logger.LookupLevel(c.LogLevel); !ok {
		problems = append(problems, fmt.Sprintf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR (got %q)", c.LogLevel))
	}
	if c.OutcomeWorkerCount < 1 {
		problems = append(problems, fmt.Sprintf("OUTCOME_WORKER_COUNT must be at least 1 (got %d)", c.OutcomeWorkerCount))
	}
	if c.OutcomeQueueSize < 1 {
		problems = append(problems, fmt.Sprintf("OUTCOME_QUEUE_SIZE must be at least 1 (got %d)", c.OutcomeQueueSize))
	}
	if c.MaxDeckLimit < 1 {
		problems = append(problems, fmt.Sprintf("MAX_DECK_LIMIT must be at least 1 (got %d)", c.MaxDeckLimit))
	}
	if c.DefaultDeckLimit < 1 || (c.MaxDeckLimit >= 1 && c.DefaultDeckLimit > c.MaxDeckLimit) {
		problems = append(problems, fmt.Sprintf("DEFAULT_DECK_LIMIT must be between 1 and MAX_DECK_LIMIT (got %d)", c.DefaultDeckLimit))
	}
	if c.SessionIdleTimeout < time.Minute {
		problems = append(problems, fmt.Sprintf("SESSION_IDLE_TIMEOUT must be at least 1m (got %s)", c.SessionIdleTimeout))
	}
	if c.RedisURL != "" {
		if u, err := url.Parse(c.RedisURL); err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			problems = append(problems, fmt.Sprintf("REDIS_URL must be a redis:// or rediss:// URL (got %q)", c.RedisURL))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}

func envListOr(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
