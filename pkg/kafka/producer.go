package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes keyed events and records publish metrics.
type Producer struct {
	w     MessageWriter
	codec string
	m     *publishMetrics
}

// NewProducer validates the options and dials nothing until the first publish.
func NewProducer(opts ...Option) (*Producer, error) {
	cfg := DefaultWriterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewProducerWithWriter(cfg.writer(), cfg.Compression), nil
}

// NewProducerWithWriter wraps w; codec only labels metrics.
func NewProducerWithWriter(w MessageWriter, codec string) *Producer {
	return &Producer{w: w, codec: codec, m: sharedMetrics()}
}

// Publish writes one message to topic. Strings and byte slices are sent raw, anything else as JSON.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	payload, err := encode(value)
	if err != nil {
		return err
	}

	start := time.Now()
	err = p.w.WriteMessages(ctx, kafka.Message{Topic: topic, Key: key, Value: payload, Time: start})
	p.m.observe(topic, p.codec, len(payload), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("kafka publish %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.w == nil {
		return nil
	}
	return p.w.Close()
}

func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode kafka payload: %w", err)
	}
	return b, nil
}

type publishMetrics struct {
	messages *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// sharedMetrics registers the collectors once per process.
var sharedMetrics = sync.OnceValue(func() *publishMetrics {
	return &publishMetrics{
		messages: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "findash_kafka_published_total",
			Help: "Messages published to Kafka, by topic, codec and result",
		}, []string{"topic", "codec", "result"}),
		bytes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "findash_kafka_published_bytes_total",
			Help: "Payload bytes published to Kafka",
		}, []string{"topic"}),
		latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "findash_kafka_publish_seconds",
			Help:    "Kafka publish latency",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 10},
		}, []string{"topic"}),
	}
})

func (m *publishMetrics) observe(topic, codec string, size int, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.messages.WithLabelValues(topic, codec, result).Inc()
	m.bytes.WithLabelValues(topic).Add(float64(size))
	m.latency.WithLabelValues(topic).Observe(took.Seconds())
}
