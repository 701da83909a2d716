package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Cache backends accepted by CONFERENCE_CACHE_BACKEND.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config captures environment driven configuration values for the conference service.
type Config struct {
	HTTPPort             int
	SQLiteDSN            string
	JWTSecret            string
	JWTIssuer            string
	APIBasePath          string
	CacheBackend         string
	RedisAddr            string
	RedisPrefix          string
	TaskWorkers          int
	TaskQueueSize        int
	AnnouncementSchedule string
	RateLimitRPS         float64
	RateLimitBurst       int
	LogLevel             string
	MailSender           string
}

// LoadDotEnv loads the given .env files when they exist. Variables already
// present in the process environment are left untouched.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load parses configuration values from the current process environment.
//
// Optional values fall back to defaults. Missing required values and
// malformed values are collected and reported together.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:             8080,
		SQLiteDSN:            "file:conference.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		APIBasePath:          "/_ah/api/conference/v1",
		CacheBackend:         CacheBackendMemory,
		RedisAddr:            "localhost:6379",
		RedisPrefix:          "conference:",
		TaskWorkers:          4,
		TaskQueueSize:        256,
		AnnouncementSchedule: "@every 1h",
		RateLimitRPS:         0,
		RateLimitBurst:       20,
		LogLevel:             "info",
		MailSender:           "noreply@conference-central.example",
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := env("CONFERENCE_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "CONFERENCE_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := env("CONFERENCE_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := env("CONFERENCE_JWT_SECRET"); secret == "" {
		missing = append(missing, "CONFERENCE_JWT_SECRET")
	} else {
		cfg.JWTSecret = secret
	}

	cfg.JWTIssuer = env("CONFERENCE_JWT_ISSUER")

	if basePath := env("CONFERENCE_API_BASE_PATH"); basePath != "" {
		if !strings.HasPrefix(basePath, "/") {
			invalid = append(invalid, "CONFERENCE_API_BASE_PATH")
		} else {
			cfg.APIBasePath = strings.TrimRight(basePath, "/")
		}
	}

	if backend := strings.ToLower(env("CONFERENCE_CACHE_BACKEND")); backend != "" {
		switch backend {
		case CacheBackendMemory, CacheBackendRedis:
			cfg.CacheBackend = backend
		default:
			invalid = append(invalid, "CONFERENCE_CACHE_BACKEND")
		}
	}

	if addr, ok := os.LookupEnv("CONFERENCE_REDIS_ADDR"); ok {
		cfg.RedisAddr = strings.TrimSpace(addr)
	}
	if cfg.CacheBackend == CacheBackendRedis && cfg.RedisAddr == "" {
		missing = append(missing, "CONFERENCE_REDIS_ADDR")
	}

	if prefix, ok := os.LookupEnv("CONFERENCE_REDIS_PREFIX"); ok {
		cfg.RedisPrefix = strings.TrimSpace(prefix)
	}

	if workersValue := env("CONFERENCE_TASK_WORKERS"); workersValue != "" {
		workers, err := strconv.Atoi(workersValue)
		if err != nil || workers <= 0 {
			invalid = append(invalid, "CONFERENCE_TASK_WORKERS")
		} else {
			cfg.TaskWorkers = workers
		}
	}

	if sizeValue := env("CONFERENCE_TASK_QUEUE_SIZE"); sizeValue != "" {
		size, err := strconv.Atoi(sizeValue)
		if err != nil || size <= 0 {
			invalid = append(invalid, "CONFERENCE_TASK_QUEUE_SIZE")
		} else {
			cfg.TaskQueueSize = size
		}
	}

	if schedule := env("CONFERENCE_ANNOUNCEMENT_SCHEDULE"); schedule != "" {
		cfg.AnnouncementSchedule = schedule
	}

	if rpsValue := env("CONFERENCE_RATE_LIMIT_RPS"); rpsValue != "" {
		rps, err := strconv.ParseFloat(rpsValue, 64)
		if err != nil || rps < 0 {
			invalid = append(invalid, "CONFERENCE_RATE_LIMIT_RPS")
		} else {
			cfg.RateLimitRPS = rps
		}
	}

	if burstValue := env("CONFERENCE_RATE_LIMIT_BURST"); burstValue != "" {
		burst, err := strconv.Atoi(burstValue)
		if err != nil || burst <= 0 {
			invalid = append(invalid, "CONFERENCE_RATE_LIMIT_BURST")
		} else {
			cfg.RateLimitBurst = burst
		}
	}

	if level := strings.ToLower(env("CONFERENCE_LOG_LEVEL")); level != "" {
		switch level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		default:
			invalid = append(invalid, "CONFERENCE_LOG_LEVEL")
		}
	}

	if sender := env("CONFERENCE_MAIL_SENDER"); sender != "" {
		cfg.MailSender = sender
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
