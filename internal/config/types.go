package config

// Config is the full service configuration, loaded from YAML with
// ${ENV_VAR} expansion. Defaults are applied before validation, so a
// minimal config file (or none at all) yields a runnable service.
type Config struct {
	Listen   string `yaml:"listen" validate:"required"`
	LogLevel string `yaml:"log_level" validate:"oneof=DEBUG INFO WARN ERROR"`

	Webhook WebhookConfig `yaml:"webhook"`
	Store   StoreConfig   `yaml:"store"`
	Ingest  IngestConfig  `yaml:"ingest"`
}

// WebhookConfig holds the ingestion pipeline limits.
type WebhookConfig struct {
	// Secret is the bearer credential pushers must present. An empty
	// secret does not fail startup; it makes the access gate deny every
	// request (fail closed on misconfiguration).
	Secret string `yaml:"secret"`

	MaxBodyBytes int64 `yaml:"max_body_bytes" validate:"min=1"`

	RateLimitMax     int `yaml:"rate_limit_max" validate:"min=1"`
	RateLimitWindowS int `yaml:"rate_limit_window_seconds" validate:"min=1"`

	TimestampToleranceS int `yaml:"timestamp_tolerance_seconds" validate:"min=1"`
	ReplayTTLS          int `yaml:"replay_ttl_seconds" validate:"min=1"`
	StoreTimeoutMS      int `yaml:"store_timeout_ms" validate:"min=1"`

	MaxBatchSize int `yaml:"max_batch_size" validate:"min=1"`
}

// StoreConfig selects the shared state backend.
type StoreConfig struct {
	Backend       string `yaml:"backend" validate:"oneof=redis sqlite memory none"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" validate:"min=0"`
	SQLitePath    string `yaml:"sqlite_path"`
}

// IngestConfig selects where validated article batches go.
type IngestConfig struct {
	Sink         string   `yaml:"sink" validate:"oneof=log kafka"`
	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
}

// Default values
const (
	DefaultListen              = "127.0.0.1:8080"
	DefaultMaxBodyBytes        = 5 << 20 // 5 MiB
	DefaultRateLimitMax        = 60
	DefaultRateLimitWindowS    = 60
	DefaultTimestampToleranceS = 300
	DefaultReplayTTLS          = 600
	DefaultStoreTimeoutMS      = 500
	DefaultMaxBatchSize        = 100
	DefaultSQLitePath          = "./data/pressgate.db"
	DefaultKafkaTopic          = "articles.published"
)
