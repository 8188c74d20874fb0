package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "taskchat.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	path := DefaultConfigFile
	if p := os.Getenv("TASKCHAT_CONFIG"); p != "" {
		path = p
	}
	return LoadFrom(path)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config. Bare names
// (DATABASE_URL, OPENAI_API_KEY, GROQ_API_KEY, LLM_PROVIDER, NATS_URL)
// match what the surrounding deployment tooling already exports.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Host, "TASKCHAT_HOST")
	setString(&cfg.Server.Port, "TASKCHAT_PORT")
	setString(&cfg.Server.CORSOrigin, "TASKCHAT_CORS_ORIGIN")
	setDuration(&cfg.Server.ReadTimeout, "TASKCHAT_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "TASKCHAT_WRITE_TIMEOUT")
	setDuration(&cfg.Server.RequestTimeout, "TASKCHAT_REQUEST_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "TASKCHAT_SHUTDOWN_TIMEOUT")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "TASKCHAT_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "TASKCHAT_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "TASKCHAT_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "TASKCHAT_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "TASKCHAT_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")

	setInt(&cfg.Chat.HistoryLimit, "TASKCHAT_HISTORY_LIMIT")

	setString(&cfg.Reasoning.Provider, "LLM_PROVIDER")
	setString(&cfg.Reasoning.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&cfg.Reasoning.GroqAPIKey, "GROQ_API_KEY")
	setString(&cfg.Reasoning.OpenAIBaseURL, "TASKCHAT_OPENAI_BASE_URL")
	setString(&cfg.Reasoning.GroqBaseURL, "TASKCHAT_GROQ_BASE_URL")
	setString(&cfg.Reasoning.Model, "TASKCHAT_MODEL")
	setDuration(&cfg.Reasoning.Timeout, "TASKCHAT_REASONING_TIMEOUT")
	setInt64(&cfg.Reasoning.MaxConcurrent, "TASKCHAT_REASONING_MAX_CONCURRENT")

	setString(&cfg.Auth.JWTSecret, "TASKCHAT_JWT_SECRET")
	setDuration(&cfg.Auth.TokenTTL, "TASKCHAT_TOKEN_TTL")
	setString(&cfg.Auth.DemoUser, "TASKCHAT_DEMO_USER")
	setInt(&cfg.Auth.BcryptCost, "TASKCHAT_BCRYPT_COST")

	setString(&cfg.Logging.Level, "TASKCHAT_LOG_LEVEL")
	setString(&cfg.Logging.Format, "TASKCHAT_LOG_FORMAT")
	setString(&cfg.Logging.Service, "TASKCHAT_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "TASKCHAT_LOG_ASYNC")
	setInt(&cfg.Logging.AsyncBuffer, "TASKCHAT_LOG_ASYNC_BUFFER")
	setInt(&cfg.Logging.AsyncWorkers, "TASKCHAT_LOG_ASYNC_WORKERS")

	setBool(&cfg.Telemetry.Enabled, "TASKCHAT_TELEMETRY_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "TASKCHAT_TELEMETRY_ENDPOINT")
	setString(&cfg.Telemetry.ServiceName, "TASKCHAT_TELEMETRY_SERVICE")

	setInt(&cfg.Breaker.MaxFailures, "TASKCHAT_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "TASKCHAT_BREAKER_TIMEOUT")

	setFloat64(&cfg.Rate.RequestsPerSecond, "TASKCHAT_RATE_RPS")
	setInt(&cfg.Rate.Burst, "TASKCHAT_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "TASKCHAT_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "TASKCHAT_RATE_MAX_IDLE_TIME")

	setInt64(&cfg.Cache.L1MaxSizeMB, "TASKCHAT_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "TASKCHAT_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.TTL, "TASKCHAT_CACHE_TTL")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Chat.HistoryLimit < 1 {
		return errors.New("chat.history_limit must be >= 1")
	}
	if cfg.Reasoning.Timeout <= 0 {
		return errors.New("reasoning.timeout must be positive")
	}
	if cfg.Reasoning.MaxConcurrent < 1 {
		return errors.New("reasoning.max_concurrent must be >= 1")
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
