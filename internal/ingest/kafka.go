package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"github.com/novantia/pressgate/internal/metrics"
	"github.com/novantia/pressgate/internal/webhook"
)

// KafkaHandler publishes each validated batch as one JSON message to a
// topic, keyed by the first article id so batches for the same lead
// article land on the same partition.
type KafkaHandler struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

// kafkaBatch is the wire format written to the topic.
type kafkaBatch struct {
	Articles []webhook.Article `json:"articles"`
}

func NewKafkaHandler(brokers []string, topic string, logger *slog.Logger) (*KafkaHandler, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_6_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &KafkaHandler{producer: producer, topic: topic, logger: logger}, nil
}

func (h *KafkaHandler) Ingest(_ context.Context, articles []webhook.Article) error {
	payload, err := json.Marshal(kafkaBatch{Articles: articles})
	if err != nil {
		return fmt.Errorf("marshal article batch: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: h.topic,
		Value: sarama.ByteEncoder(payload),
	}
	if len(articles) > 0 {
		msg.Key = sarama.StringEncoder(articles[0].ID)
	}

	partition, offset, err := h.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publish article batch: %w", err)
	}

	h.logger.Info("article batch published",
		"topic", h.topic, "partition", partition, "offset", offset, "count", len(articles))
	metrics.ArticlesIngestedTotal.Add(float64(len(articles)))
	return nil
}

func (h *KafkaHandler) Close() error {
	return h.producer.Close()
}
