package webhook

import (
	"time"

	"github.com/novantia/pressgate/internal/config"
)

// FromGlobalConfig converts the loaded service configuration into the
// resolved durations the pipeline works with.
func FromGlobalConfig(cfg *config.Config) Config {
	return Config{
		Listen:             cfg.Listen,
		Secret:             cfg.Webhook.Secret,
		MaxBodyBytes:       cfg.Webhook.MaxBodyBytes,
		RateLimitMax:       cfg.Webhook.RateLimitMax,
		RateLimitWindow:    time.Duration(cfg.Webhook.RateLimitWindowS) * time.Second,
		TimestampTolerance: time.Duration(cfg.Webhook.TimestampToleranceS) * time.Second,
		ReplayTTL:          time.Duration(cfg.Webhook.ReplayTTLS) * time.Second,
		StoreTimeout:       time.Duration(cfg.Webhook.StoreTimeoutMS) * time.Millisecond,
		MaxBatchSize:       cfg.Webhook.MaxBatchSize,
	}
}
