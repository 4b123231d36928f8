package repository

import (
	"context"

	"FinDash/internal/domain/models"
	pkgkafka "FinDash/pkg/kafka"
)

// KafkaResultPublisher emits one JSON event per ticker result, keyed by ticker.
type KafkaResultPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaResultPublisher(producer *pkgkafka.Producer, topic string) *KafkaResultPublisher {
	return &KafkaResultPublisher{producer: producer, topic: topic}
}

func (p *KafkaResultPublisher) PublishResult(ctx context.Context, r models.TickerResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Ticker), r)
}

func (p *KafkaResultPublisher) Close() error {
	return p.producer.Close()
}
