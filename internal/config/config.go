package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/neomorfeo/retailledger/internal/adapter/otel"
	"github.com/neomorfeo/retailledger/internal/adapter/river"
)

// Sequence backends.
const (
	SequenceBackendSQLite = "sqlite"
	SequenceBackendRedis  = "redis"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type TelemetryConfig struct {
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Environment    string        `mapstructure:"environment"`
	Exporter       string        `mapstructure:"exporter"`
	Endpoint       string        `mapstructure:"endpoint"`
	MetricInterval time.Duration `mapstructure:"metric_interval"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type RedisConfig struct {
	Address string `mapstructure:"address"`
}

type LedgerConfig struct {
	SequenceBackend   string        `mapstructure:"sequence_backend"`
	LowStockThreshold int64         `mapstructure:"low_stock_threshold"`
	OrderLocks        bool          `mapstructure:"order_locks"`
	LockTTL           time.Duration `mapstructure:"lock_ttl"`
	EventWorkers      int           `mapstructure:"event_workers"`
	EventRetention    time.Duration `mapstructure:"event_retention"`
}

// envBindings maps config keys to their environment variables.
var envBindings = map[string]string{
	"server.port":                "PORT",
	"database.path":              "DATABASE_PATH",
	"telemetry.service_name":     "OTEL_SERVICE_NAME",
	"telemetry.service_version":  "OTEL_SERVICE_VERSION",
	"telemetry.environment":      "OTEL_ENVIRONMENT",
	"telemetry.exporter":         "OTEL_EXPORTER",
	"telemetry.endpoint":         "OTEL_COLLECTOR_ENDPOINT",
	"telemetry.metric_interval":  "OTEL_METRIC_INTERVAL",
	"logging.level":              "LOG_LEVEL",
	"redis.address":              "REDIS_ADDRESS",
	"ledger.sequence_backend":    "SEQUENCE_BACKEND",
	"ledger.low_stock_threshold": "LOW_STOCK_THRESHOLD",
	"ledger.order_locks":         "ORDER_LOCKS",
	"ledger.lock_ttl":            "ORDER_LOCK_TTL",
	"ledger.event_workers":       "EVENT_WORKERS",
	"ledger.event_retention":     "EVENT_RETENTION",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("database.path", "retailledger.db")
	v.SetDefault("telemetry.service_name", "retailledger")
	v.SetDefault("telemetry.service_version", "0.1.0")
	v.SetDefault("telemetry.environment", "development")
	v.SetDefault("telemetry.exporter", "stdout")
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.metric_interval", 30*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("redis.address", "")
	v.SetDefault("ledger.sequence_backend", SequenceBackendSQLite)
	v.SetDefault("ledger.low_stock_threshold", 5)
	v.SetDefault("ledger.order_locks", false)
	v.SetDefault("ledger.lock_ttl", 10*time.Second)
	v.SetDefault("ledger.event_workers", 2)
	v.SetDefault("ledger.event_retention", 24*time.Hour)
}

// Load reads an optional config.yaml from the working directory or ./configs,
// then applies environment overrides.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.Ledger.SequenceBackend {
	case SequenceBackendSQLite:
	case SequenceBackendRedis:
		if c.Redis.Address == "" {
			return errors.New("config: SEQUENCE_BACKEND=redis requires REDIS_ADDRESS")
		}
	default:
		return fmt.Errorf("config: unsupported sequence backend %q", c.Ledger.SequenceBackend)
	}

	if c.Ledger.OrderLocks && c.Redis.Address == "" {
		return errors.New("config: ORDER_LOCKS requires REDIS_ADDRESS")
	}
	if c.Ledger.EventWorkers < 1 {
		return fmt.Errorf("config: event workers must be at least 1, got %d", c.Ledger.EventWorkers)
	}
	if c.Ledger.LowStockThreshold < 0 {
		return fmt.Errorf("config: low stock threshold must not be negative, got %d", c.Ledger.LowStockThreshold)
	}
	return nil
}

// OTel returns the telemetry provider settings. Local environments export
// over plain HTTP. The ledger's backend choices are tagged on the resource.
func (c *Config) OTel() otel.Config {
	return otel.Config{
		ServiceName:    c.Telemetry.ServiceName,
		ServiceVersion: c.Telemetry.ServiceVersion,
		Environment:    c.Telemetry.Environment,
		Exporter:       otel.Exporter(c.Telemetry.Exporter),
		Insecure:       c.Telemetry.Environment == "development",
		Endpoint:       c.Telemetry.Endpoint,
		MetricInterval: c.Telemetry.MetricInterval,
		Attributes: map[string]string{
			"ledger.sequence_backend": c.Ledger.SequenceBackend,
			"ledger.order_locks":      strconv.FormatBool(c.Ledger.OrderLocks),
		},
	}
}

// Events returns the ledger event queue settings.
func (c *Config) Events() river.Options {
	return river.Options{
		EventWorkers:   c.Ledger.EventWorkers,
		EventRetention: c.Ledger.EventRetention,
	}
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.Ledger.SequenceBackend == SequenceBackendRedis || c.Ledger.OrderLocks
}
