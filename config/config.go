package config

import (
	stderrors "errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// Session store backends
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

type SessionConfig struct {
	Backend   string `mapstructure:"backend"`
	FilePath  string `mapstructure:"file_path"`
	KeyPrefix string `mapstructure:"key_prefix"`
	// EncryptionKey seals the session file (hex or base64, 16/24/32 bytes).
	EncryptionKey string `mapstructure:"encryption_key"`
	// Channel is the broker channel session events are published on; empty disables publishing.
	Channel string `mapstructure:"channel"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Session   SessionConfig   `mapstructure:"session"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// envOverrides are the short variables deployments usually set.
type envOverrides struct {
	BackendURL     string `envconfig:"BACKEND_URL"`
	SessionBackend string `envconfig:"SESSION_BACKEND"`
	SessionFile    string `envconfig:"SESSION_FILE"`
	SessionKey     string `envconfig:"SESSION_KEY"`
	RedisURL       string `envconfig:"REDIS_URL"`
	LogLevel       string `envconfig:"LOG_LEVEL"`
}

// setDefaults registers every key, including empty ones, so AutomaticEnv
// can fill them on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.user_agent", "healthhub-client/1.0")

	v.SetDefault("session.backend", BackendFile)
	v.SetDefault("session.file_path", defaultSessionFile())
	v.SetDefault("session.key_prefix", "healthhub:")
	v.SetDefault("session.encryption_key", "")
	v.SetDefault("session.channel", "")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 5)
	v.SetDefault("redis.min_idle_conns", 1)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("metrics.namespace", "healthhub")
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".healthhub", "session.json")
	}
	return filepath.Join(home, ".healthhub", "session.json")
}

// LoadConfig reads config.yml (or the file at path), then HEALTHHUB_* env.
// A missing config file is not an error; every key has a default except the base URL.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.healthhub")
	}

	v.SetEnvPrefix("healthhub")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !stderrors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process("healthhub", &env); err != nil {
		return fmt.Errorf("failed to load env overrides: %w", err)
	}
	if env.BackendURL != "" {
		cfg.API.BaseURL = env.BackendURL
	}
	if env.SessionBackend != "" {
		cfg.Session.Backend = env.SessionBackend
	}
	if env.SessionFile != "" {
		cfg.Session.FilePath = env.SessionFile
	}
	if env.SessionKey != "" {
		cfg.Session.EncryptionKey = env.SessionKey
	}
	if env.RedisURL != "" {
		cfg.Redis.URL = env.RedisURL
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	return nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	base := strings.TrimSpace(c.API.BaseURL)
	if base == "" {
		return fmt.Errorf("api.base_url is required (or set HEALTHHUB_BACKEND_URL)")
	}
	u, err := url.ParseRequestURI(base)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q", base)
	}
	c.API.BaseURL = strings.TrimRight(base, "/")

	switch c.Session.Backend {
	case BackendFile:
		if c.Session.FilePath == "" {
			return fmt.Errorf("session.file_path is required for the file backend")
		}
	case BackendMemory, BackendPostgres:
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("redis.url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown session.backend %q", c.Session.Backend)
	}

	if c.Session.Channel != "" && c.Redis.URL == "" {
		return fmt.Errorf("redis.url is required to publish session events")
	}
	return nil
}
