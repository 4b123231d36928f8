package kafka

import (
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// WriterConfig describes how result events reach the brokers.
type WriterConfig struct {
	Brokers      []string
	Compression  string
	RequiredAcks int
	MaxAttempts  int
	WriteTimeout time.Duration
	// one event per ticker; flushing early beats waiting for a full batch
	BatchTimeout time.Duration
}

// DefaultWriterConfig waits for all replicas and retries three times.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		Compression:  "gzip",
		RequiredAcks: int(kafka.RequireAll),
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		BatchTimeout: 10 * time.Millisecond,
	}
}

// Option mutates a WriterConfig before the writer is built.
type Option func(*WriterConfig)

func WithBrokers(brokers ...string) Option {
	return func(c *WriterConfig) { c.Brokers = append(c.Brokers[:0], brokers...) }
}

func WithCompression(codec string) Option {
	return func(c *WriterConfig) { c.Compression = codec }
}

// WithDelivery sets acknowledgement level (-1 all, 0 none, 1 leader), retries and write timeout.
func WithDelivery(requiredAcks, maxAttempts int, writeTimeout time.Duration) Option {
	return func(c *WriterConfig) {
		c.RequiredAcks = requiredAcks
		c.MaxAttempts = maxAttempts
		c.WriteTimeout = writeTimeout
	}
}

// Validate reports the first unusable setting.
func (c WriterConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("kafka: at least one broker is required")
	}
	if _, ok := codecs[c.Compression]; !ok {
		return fmt.Errorf("kafka: unknown compression %q", c.Compression)
	}
	if c.RequiredAcks < -1 || c.RequiredAcks > 1 {
		return fmt.Errorf("kafka: required_acks must be -1, 0 or 1, got %d", c.RequiredAcks)
	}
	if c.MaxAttempts < 1 {
		return errors.New("kafka: max_attempts must be positive")
	}
	return nil
}

var codecs = map[string]kafka.Compression{
	"gzip":   kafka.Gzip,
	"snappy": kafka.Snappy,
	"lz4":    kafka.Lz4,
	"zstd":   kafka.Zstd,
}

// writer keys messages with a hash balancer so one ticker stays on one partition.
func (c WriterConfig) writer() *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequiredAcks(c.RequiredAcks),
		Compression:            codecs[c.Compression],
		MaxAttempts:            c.MaxAttempts,
		WriteTimeout:           c.WriteTimeout,
		BatchTimeout:           c.BatchTimeout,
		AllowAutoTopicCreation: true,
	}
}
