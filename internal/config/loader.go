package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file. An empty path falls
// back to ./config.yaml if present, otherwise pure defaults plus
// environment variables.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if configPath == "" {
		if _, err := os.Stat("./config.yaml"); err == nil {
			configPath = "./config.yaml"
		}
	}

	if configPath != "" {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
		}
		data, err := os.ReadFile(absPath)
		if err != nil {
			return nil, fmt.Errorf("config file not found: %s\n"+
				"Hint: Check the path or run with --config flag", absPath)
		}

		expanded := expandEnvVars(data)
		if err := yaml.Unmarshal(expanded, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", absPath, err)
		}
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// expandEnvVars replaces ${VAR} references with environment values.
// Unset variables expand to the empty string.
func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}
	if cfg.Webhook.MaxBodyBytes == 0 {
		cfg.Webhook.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Webhook.RateLimitMax == 0 {
		cfg.Webhook.RateLimitMax = DefaultRateLimitMax
	}
	if cfg.Webhook.RateLimitWindowS == 0 {
		cfg.Webhook.RateLimitWindowS = DefaultRateLimitWindowS
	}
	if cfg.Webhook.TimestampToleranceS == 0 {
		cfg.Webhook.TimestampToleranceS = DefaultTimestampToleranceS
	}
	if cfg.Webhook.ReplayTTLS == 0 {
		cfg.Webhook.ReplayTTLS = DefaultReplayTTLS
	}
	if cfg.Webhook.StoreTimeoutMS == 0 {
		cfg.Webhook.StoreTimeoutMS = DefaultStoreTimeoutMS
	}
	if cfg.Webhook.MaxBatchSize == 0 {
		cfg.Webhook.MaxBatchSize = DefaultMaxBatchSize
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "none"
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = DefaultSQLitePath
	}
	if cfg.Ingest.Sink == "" {
		cfg.Ingest.Sink = "log"
	}
	if cfg.Ingest.KafkaTopic == "" {
		cfg.Ingest.KafkaTopic = DefaultKafkaTopic
	}
}

// applyEnvOverrides lets the common knobs be set without a config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" && cfg.Webhook.Secret == "" {
		cfg.Webhook.Secret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" && cfg.Store.RedisAddr == "" {
		cfg.Store.RedisAddr = v
		if cfg.Store.Backend == "none" {
			cfg.Store.Backend = "redis"
		}
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" && cfg.Store.RedisPassword == "" {
		cfg.Store.RedisPassword = v
	}
	if v := os.Getenv("PRESSGATE_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func validate(cfg *Config) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return err
	}
	if cfg.Store.Backend == "redis" && cfg.Store.RedisAddr == "" {
		return fmt.Errorf("store backend is redis but redis_addr is empty")
	}
	if cfg.Ingest.Sink == "kafka" && len(cfg.Ingest.KafkaBrokers) == 0 {
		return fmt.Errorf("ingest sink is kafka but kafka_brokers is empty")
	}
	return nil
}
