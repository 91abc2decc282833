// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type DBConfig struct {
	URL          string
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN returns URL when set, otherwise a postgres:// DSN built from the parts.
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

type Config struct {
	Environment     string
	ServerPort      string
	DB              DBConfig
	QueueDriver     string
	AMQPURL         string
	Redis           RedisConfig
	LogLevel        string
	LogFormat       string
	SentryDSN       string
	CopiedIndicator time.Duration
	AlertWindowDays int
	SystemClipboard bool
}

const (
	QueueMemory = "memory"
	QueueAMQP   = "amqp"
)

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, relying on OS environment variables")
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		DB: DBConfig{
			URL:          getEnv("DATABASE_URL", ""),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Name:         getEnv("DB_NAME", "opsboard"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		},
		QueueDriver: strings.ToLower(getEnv("QUEUE_DRIVER", QueueMemory)),
		AMQPURL:     getEnv("AMQP_URL", ""),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		SentryDSN:       getEnv("SENTRY_DSN", ""),
		CopiedIndicator: getEnvAsDuration("COPIED_INDICATOR_TTL", 2*time.Second),
		AlertWindowDays: getEnvAsInt("ALERT_WINDOW_DAYS", 5),
		SystemClipboard: getEnvAsBool("CLIPBOARD_SYSTEM", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.URL == "" && (c.DB.Host == "" || c.DB.Name == "") {
		return fmt.Errorf("DATABASE_URL or DB_HOST/DB_NAME is required")
	}
	switch c.QueueDriver {
	case QueueMemory:
	case QueueAMQP:
		if c.AMQPURL == "" {
			return fmt.Errorf("AMQP_URL is required when QUEUE_DRIVER=amqp")
		}
	default:
		return fmt.Errorf("unknown QUEUE_DRIVER %q", c.QueueDriver)
	}
	if c.AlertWindowDays < 0 {
		return fmt.Errorf("ALERT_WINDOW_DAYS must not be negative")
	}
	return nil
}

// LogSummary prints the loaded configuration without secrets.
func (c *Config) LogSummary() {
	log.WithFields(log.Fields{
		"environment":  c.Environment,
		"server_port":  c.ServerPort,
		"database":     MaskPassword(c.DB.DSN()),
		"queue_driver": c.QueueDriver,
		"redis":        c.Redis.Enabled(),
		"sentry":       c.SentryDSN != "",
	}).Info("configuration loaded")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

// MaskPassword hides the password part of a postgres:// DSN.
func MaskPassword(dsn string) string {
	schemeEnd := strings.Index(dsn, "://")
	at := strings.LastIndex(dsn, "@")
	if schemeEnd == -1 || at == -1 || at < schemeEnd {
		return dsn
	}
	creds := dsn[schemeEnd+3 : at]
	colon := strings.Index(creds, ":")
	if colon == -1 {
		return dsn
	}
	return dsn[:schemeEnd+3] + creds[:colon] + ":*****" + dsn[at:]
}
