package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration shared by the event and request services
type Config struct {
	Server       ServerConfig       `yaml:"server" envPrefix:"SERVER_"`
	Database     DatabaseConfig     `yaml:"database" envPrefix:"DB_"`
	Log          LogConfig          `yaml:"log" envPrefix:"LOG_"`
	EventService EventServiceConfig `yaml:"event_service" envPrefix:"EVENT_SERVICE_"`
	Security     SecurityConfig     `yaml:"security" envPrefix:"SECURITY_"`
	Scheduler    SchedulerConfig    `yaml:"scheduler" envPrefix:"SCHEDULER_"`
	Telemetry    TelemetryConfig    `yaml:"telemetry" envPrefix:"OTEL_"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host" env:"HOST"`
	Port         int    `yaml:"port" env:"PORT"`
	User         string `yaml:"user" env:"USER"`
	Password     string `yaml:"password" env:"PASSWORD"`
	Database     string `yaml:"database" env:"NAME"`
	SSLMode      string `yaml:"ssl_mode" env:"SSL_MODE"`
	MaxOpenConns int    `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`   // "debug", "info", "warn", "error"
	Format string `yaml:"format" env:"FORMAT"` // "json" or "text"
}

// EventServiceConfig tells the request service how to reach the event service
type EventServiceConfig struct {
	BaseURL         string        `yaml:"base_url" env:"BASE_URL"`
	Timeout         time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MaxRetries      uint          `yaml:"max_retries" env:"MAX_RETRIES"`
	InitialInterval time.Duration `yaml:"initial_interval" env:"INITIAL_INTERVAL"`
	MaxElapsedTime  time.Duration `yaml:"max_elapsed_time" env:"MAX_ELAPSED_TIME"`
}

// SecurityConfig contains the shared secret used on the interaction API
type SecurityConfig struct {
	ServiceSecret string        `yaml:"service_secret" env:"SERVICE_SECRET"`
	ServiceName   string        `yaml:"service_name" env:"SERVICE_NAME"`
	TokenTTL      time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
}

// SchedulerConfig contains cron schedules (seconds precision) and job limits
type SchedulerConfig struct {
	RetryCounterAdjustments string `yaml:"retry_counter_adjustments" env:"RETRY_COUNTER_ADJUSTMENTS"`
	ReconcileCounters       string `yaml:"reconcile_counters" env:"RECONCILE_COUNTERS"`
	AdjustmentBatchSize     int    `yaml:"adjustment_batch_size" env:"ADJUSTMENT_BATCH_SIZE"`
	MaxAdjustmentAttempts   int    `yaml:"max_adjustment_attempts" env:"MAX_ADJUSTMENT_ATTEMPTS"`
}

// TelemetryConfig controls OpenTelemetry tracing export
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`
}

// Load reads configuration from a YAML file, then applies environment overrides
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings common to both services and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 20
	}

	if c.Security.ServiceSecret == "" {
		return fmt.Errorf("service secret is required")
	}
	if len(c.Security.ServiceSecret) < 32 {
		return fmt.Errorf("service secret must be at least 32 characters")
	}
	if c.Security.TokenTTL == 0 {
		c.Security.TokenTTL = time.Minute
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Scheduler.RetryCounterAdjustments == "" {
		c.Scheduler.RetryCounterAdjustments = "*/30 * * * * *" // every 30 seconds
	}
	if c.Scheduler.ReconcileCounters == "" {
		c.Scheduler.ReconcileCounters = "0 */10 * * * *" // every 10 minutes
	}
	if c.Scheduler.AdjustmentBatchSize == 0 {
		c.Scheduler.AdjustmentBatchSize = 100
	}
	if c.Scheduler.MaxAdjustmentAttempts == 0 {
		c.Scheduler.MaxAdjustmentAttempts = 20
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry endpoint is required when telemetry is enabled")
	}

	return nil
}

// ValidateEventClient checks the settings only the request service needs
func (c *Config) ValidateEventClient() error {
	if c.EventService.BaseURL == "" {
		return fmt.Errorf("event service base url is required")
	}
	if _, err := url.ParseRequestURI(c.EventService.BaseURL); err != nil {
		return fmt.Errorf("invalid event service base url: %w", err)
	}
	if c.EventService.Timeout == 0 {
		c.EventService.Timeout = 3 * time.Second
	}
	if c.EventService.MaxRetries == 0 {
		c.EventService.MaxRetries = 4
	}
	if c.EventService.InitialInterval == 0 {
		c.EventService.InitialInterval = 100 * time.Millisecond
	}
	if c.EventService.MaxElapsedTime == 0 {
		c.EventService.MaxElapsedTime = 5 * time.Second
	}
	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
