package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ClipboardMemory = "memory"
	ClipboardRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	App       AppConfig
	Session   SessionConfig
	Clipboard ClipboardConfig
	Cache     CacheConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// AppConfig holds process-wide settings
type AppConfig struct {
	ServiceName  string
	Environment  string // "development", "staging", "production"
	OTLPEndpoint string // empty means no trace export
}

// SessionConfig holds the alias format and the session timings
type SessionConfig struct {
	AliasDomain     string
	TokenLength     int
	HistoryCapacity int
	GenerateDelay   time.Duration
	CopyResetAfter  time.Duration
	IdleTTL         time.Duration
}

// ClipboardConfig selects where copied text goes
type ClipboardConfig struct {
	Backend          string
	TTL              time.Duration
	FailureThreshold int
	OpenTimeout      time.Duration
}

// Redis Caching Layer configuration
type CacheConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		App: AppConfig{
			ServiceName:  getEnv("SERVICE_NAME", "link-shortener"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),
		},
		Session: SessionConfig{
			AliasDomain:     getEnv("ALIAS_DOMAIN", "short.link"),
			TokenLength:     getEnvInt("TOKEN_LENGTH", 6),
			HistoryCapacity: getEnvInt("HISTORY_CAPACITY", 5),
			GenerateDelay:   getEnvDuration("GENERATE_DELAY", 800*time.Millisecond),
			CopyResetAfter:  getEnvDuration("COPY_RESET_AFTER", 2*time.Second),
			IdleTTL:         getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
		},
		Clipboard: ClipboardConfig{
			Backend:          getEnv("CLIPBOARD_BACKEND", ClipboardMemory),
			TTL:              getEnvDuration("CLIPBOARD_TTL", time.Hour),
			FailureThreshold: getEnvInt("CLIPBOARD_BREAKER_FAILURES", 5),
			OpenTimeout:      getEnvDuration("CLIPBOARD_BREAKER_TIMEOUT", 30*time.Second),
		},
		Cache: CacheConfig{
			Host:     getEnv("RDB_HOST", "localhost"),
			Port:     getEnv("RDB_PORT", "6379"),
			User:     getEnv("RDB_USER", ""),
			Password: getEnv("RDB_PASSWORD", ""),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the session logic cannot work with
func (c *Config) Validate() error {
	if c.Session.TokenLength <= 0 {
		return errors.New("TOKEN_LENGTH must be positive")
	}
	if c.Session.HistoryCapacity <= 0 {
		return errors.New("HISTORY_CAPACITY must be positive")
	}
	if c.Session.GenerateDelay <= 0 {
		return errors.New("GENERATE_DELAY must be positive")
	}
	if c.Session.CopyResetAfter <= 0 {
		return errors.New("COPY_RESET_AFTER must be positive")
	}
	if c.Session.IdleTTL <= 0 {
		return errors.New("SESSION_IDLE_TTL must be positive")
	}
	switch c.Clipboard.Backend {
	case ClipboardMemory, ClipboardRedis:
	default:
		return fmt.Errorf("CLIPBOARD_BACKEND must be %q or %q, got %q", ClipboardMemory, ClipboardRedis, c.Clipboard.Backend)
	}
	if c.Clipboard.FailureThreshold <= 0 {
		return errors.New("CLIPBOARD_BREAKER_FAILURES must be positive")
	}
	return nil
}

// ConnectionString returns the redis connection string
func (c *CacheConfig) ConnectionString() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s/0", c.User, c.Password, c.Host, c.Port)
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
