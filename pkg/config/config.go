package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tenancyhq/bazaar/pkg/auth"
	"github.com/tenancyhq/bazaar/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Storage       storage.Config
	Auth          AuthConfig
	Audit         AuditConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// AuthConfig holds token validation configuration
type AuthConfig struct {
	Secret            auth.Secret
	AllowedAlgorithms []string
	Issuer            string
	Audience          string
	MaxTokenLifetime  time.Duration
}

// ValidatorConfig converts the loaded settings into the validator's
// injected config.
func (c AuthConfig) ValidatorConfig() auth.ValidatorConfig {
	cfg := auth.DefaultValidatorConfig(c.Secret)
	if len(c.AllowedAlgorithms) > 0 {
		cfg.AllowedAlgorithms = c.AllowedAlgorithms
	}
	cfg.Issuer = c.Issuer
	cfg.Audience = c.Audience
	if c.MaxTokenLifetime > 0 {
		cfg.MaxTokenLifetime = c.MaxTokenLifetime
	}
	return cfg
}

// AuditConfig holds audit sink configuration
type AuditConfig struct {
	// FilePath is the audit log directory; empty disables the file sink.
	FilePath      string
	MaxFileSize   int64
	RetentionAge  time.Duration
	RetentionCron string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string
	MetricsEnabled bool

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Auth:          loadAuthConfig(),
		Audit:         loadAuditConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("BAZAAR_HOST", "0.0.0.0"),
		Port:            getEnv("BAZAAR_PORT", "8080"),
		ReadTimeout:     getEnvDuration("BAZAAR_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("BAZAAR_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("BAZAAR_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("BAZAAR_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("BAZAAR_HEALTH_PORT", "9090"),
	}
}

func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if redisURL := getEnv("BAZAAR_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
	}
	if password := getEnv("BAZAAR_REDIS_PASSWORD", ""); password != "" {
		cfg.RedisPassword = password
	}
	cfg.RedisDB = getEnvInt("BAZAAR_REDIS_DB", cfg.RedisDB)
	cfg.RedisMaxRetries = getEnvInt("BAZAAR_REDIS_MAX_RETRIES", cfg.RedisMaxRetries)
	cfg.RedisPoolSize = getEnvInt("BAZAAR_REDIS_POOL_SIZE", cfg.RedisPoolSize)
	cfg.OpTimeout = getEnvDuration("BAZAAR_REDIS_OP_TIMEOUT", cfg.OpTimeout)
	return cfg
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		Secret:            auth.Secret(getEnv("BAZAAR_JWT_SECRET", "")),
		AllowedAlgorithms: getEnvList("BAZAAR_JWT_ALGORITHMS", []string{"HS256"}),
		Issuer:            getEnv("BAZAAR_JWT_ISSUER", ""),
		Audience:          getEnv("BAZAAR_JWT_AUDIENCE", ""),
		MaxTokenLifetime:  getEnvDuration("BAZAAR_MAX_TOKEN_LIFETIME", auth.DefaultMaxTokenLifetime),
	}
}

func loadAuditConfig() AuditConfig {
	return AuditConfig{
		FilePath:      getEnv("BAZAAR_AUDIT_PATH", ""),
		MaxFileSize:   int64(getEnvInt("BAZAAR_AUDIT_MAX_FILE_SIZE", 100*1024*1024)),
		RetentionAge:  getEnvDuration("BAZAAR_AUDIT_RETENTION_AGE", 90*24*time.Hour),
		RetentionCron: getEnv("BAZAAR_AUDIT_RETENTION_CRON", "0 3 * * *"),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           getEnv("BAZAAR_LOG_LEVEL", "info"),
		MetricsEnabled:     getEnvBool("BAZAAR_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("BAZAAR_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("BAZAAR_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("BAZAAR_OTEL_SERVICE_NAME", "bazaar"),
		OTelServiceVersion: getEnv("BAZAAR_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("BAZAAR_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Storage.RedisURL == "" {
		return fmt.Errorf("redis URL is required")
	}

	if c.Auth.Secret == "" {
		return fmt.Errorf("BAZAAR_JWT_SECRET is required")
	}
	if c.Auth.MaxTokenLifetime <= 0 {
		return fmt.Errorf("max token lifetime must be positive")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}
	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList returns a comma-separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
