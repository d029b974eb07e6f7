package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/vamsi-krishn/EHR-system/internal/email"
	"github.com/vamsi-krishn/EHR-system/pkg/messaging/redis"
	"github.com/vamsi-krishn/EHR-system/pkg/security"
	"github.com/vamsi-krishn/EHR-system/pkg/worker"
)

// EnvPrefix prefixes every environment override, e.g. EHR_SERVER_PORT.
const EnvPrefix = "EHR"

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	Latency       LatencyConfig       `mapstructure:"latency"`
	Identity      IdentityConfig      `mapstructure:"identity"`
	Authorization AuthorizationConfig `mapstructure:"authorization"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Seed          SeedConfig          `mapstructure:"seed"`
	Persistence   PersistenceConfig   `mapstructure:"persistence"`
	Events        EventsConfig        `mapstructure:"events"`
	Redis         RedisConfig         `mapstructure:"redis"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit" split_words:"true"`
	CORS          CORSConfig          `mapstructure:"cors"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	SMTP          SMTPConfig          `mapstructure:"smtp"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" split_words:"true"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" split_words:"true"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" split_words:"true"`
	PHIAudit        bool          `mapstructure:"phi_audit" split_words:"true"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

type LatencyConfig struct {
	Enabled   bool                     `mapstructure:"enabled"`
	Scale     float64                  `mapstructure:"scale"`
	Overrides map[string]time.Duration `mapstructure:"overrides"`
}

type IdentityConfig struct {
	// DuplicatePolicy is "reject" or "shadow".
	DuplicatePolicy string `mapstructure:"duplicate_policy" split_words:"true"`
}

type AuthorizationConfig struct {
	EnforceRecordAccess bool `mapstructure:"enforce_record_access" split_words:"true"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type SeedConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type PersistenceConfig struct {
	// Driver is none, postgres, sqlite or leveldb.
	Driver   string        `mapstructure:"driver"`
	DSN      string        `mapstructure:"dsn"`
	Path     string        `mapstructure:"path"`
	Interval time.Duration `mapstructure:"interval"`
	// EncryptionKey is a base64 AES key; empty stores snapshots in clear.
	EncryptionKey string `mapstructure:"encryption_key" split_words:"true"`
}

type EventsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Broker is local or redis.
	Broker          string        `mapstructure:"broker"`
	BatchSize       int           `mapstructure:"batch_size" split_words:"true"`
	PollInterval    time.Duration `mapstructure:"poll_interval" split_words:"true"`
	RetryAttempts   int           `mapstructure:"retry_attempts" split_words:"true"`
	RetryDelay      time.Duration `mapstructure:"retry_delay" split_words:"true"`
	Retention       time.Duration `mapstructure:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" split_words:"true"`
}

type RedisConfig struct {
	URL           string        `mapstructure:"url"`
	MaxRetries    int           `mapstructure:"max_retries" split_words:"true"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff" split_words:"true"`
	PoolSize      int           `mapstructure:"pool_size" split_words:"true"`
	MinIdleConns  int           `mapstructure:"min_idle_conns" split_words:"true"`
	ChannelPrefix string        `mapstructure:"channel_prefix" split_words:"true"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" split_words:"true"`
	Burst             int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string      `mapstructure:"allowed_origins" split_words:"true"`
	AllowCredentials bool          `mapstructure:"allow_credentials" split_words:"true"`
	MaxAge           time.Duration `mapstructure:"max_age" split_words:"true"`
}

type NotificationsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Transport is smtp or log.
	Transport string `mapstructure:"transport"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.phi_audit", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)

	v.SetDefault("latency.enabled", true)
	v.SetDefault("latency.scale", 1.0)

	v.SetDefault("identity.duplicate_policy", "reject")
	v.SetDefault("authorization.enforce_record_access", true)

	v.SetDefault("jwt.issuer", "ehr-ledger")
	v.SetDefault("jwt.ttl", 24*time.Hour)

	v.SetDefault("seed.enabled", true)

	v.SetDefault("persistence.driver", "none")
	v.SetDefault("persistence.path", "data/ledger")
	v.SetDefault("persistence.interval", 30*time.Second)

	v.SetDefault("events.enabled", true)
	v.SetDefault("events.broker", "local")
	v.SetDefault("events.batch_size", 100)
	v.SetDefault("events.poll_interval", time.Second)
	v.SetDefault("events.retry_attempts", 3)
	v.SetDefault("events.retry_delay", 500*time.Millisecond)
	v.SetDefault("events.retention", 24*time.Hour)
	v.SetDefault("events.cleanup_interval", time.Hour)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.channel_prefix", "ehr.")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20.0)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.max_age", 12*time.Hour)

	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.transport", "log")

	v.SetDefault("smtp.port", 587)
}

// LoadConfig reads config.yml from the search paths (or the usual locations
// when none are given), then applies EHR_* environment overrides. A .env file
// in the working directory is loaded first when present. A missing config
// file is not an error: defaults apply.
func LoadConfig(searchPaths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	if len(searchPaths) == 0 {
		searchPaths = []string{".", "./config", "/app/config"}
	}
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required (set %s_JWT_SECRET)", EnvPrefix)
	}
	switch c.Identity.DuplicatePolicy {
	case "reject", "shadow":
	default:
		return fmt.Errorf("identity.duplicate_policy must be reject or shadow, got %q", c.Identity.DuplicatePolicy)
	}
	switch strings.ToLower(c.Persistence.Driver) {
	case "", "none", "leveldb":
	case "postgres", "sqlite", "sqlite3":
		if c.Persistence.DSN == "" {
			return fmt.Errorf("persistence.dsn is required for driver %s", c.Persistence.Driver)
		}
	default:
		return fmt.Errorf("unknown persistence.driver %q", c.Persistence.Driver)
	}
	if c.Persistence.EncryptionKey != "" {
		if _, err := security.ParseKey(c.Persistence.EncryptionKey); err != nil {
			return fmt.Errorf("persistence.encryption_key: %w", err)
		}
	}
	switch c.Events.Broker {
	case "local", "redis":
	default:
		return fmt.Errorf("events.broker must be local or redis, got %q", c.Events.Broker)
	}
	if c.Notifications.Enabled && c.Notifications.Transport == "smtp" && c.SMTP.Host == "" {
		return fmt.Errorf("smtp.host is required when notifications use smtp")
	}
	return nil
}

func (c *EventsConfig) ToWorkerConfig() worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		BatchSize:     c.BatchSize,
		PollInterval:  c.PollInterval,
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    c.RetryDelay,
	}
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:           c.URL,
		MaxRetries:    c.MaxRetries,
		RetryBackoff:  c.RetryBackoff,
		PoolSize:      c.PoolSize,
		MinIdleConns:  c.MinIdleConns,
		ChannelPrefix: c.ChannelPrefix,
	}
}

func (c *SMTPConfig) ToEmailConfig() email.SMTPConfig {
	return email.SMTPConfig{
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
		From:     c.From,
	}
}
