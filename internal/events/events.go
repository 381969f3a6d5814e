// Package events publishes session lifecycle transitions to Kafka so other
// consumers in the fleet can react to connection churn, independent of the
// durable audit log.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

// Event is the JSON envelope published for every lifecycle transition.
type Event struct {
	ConnectionID string    `json:"connection_id"`
	RemoteAddr   string    `json:"remote_addr"`
	Kind         string    `json:"kind"`
	Detail       string    `json:"detail,omitempty"`
	At           time.Time `json:"at"`
}

// PublisherConfig configures the underlying Kafka writer.
type PublisherConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	Compression  string
	Async        bool
	MaxAttempts  int
	RequiredAcks int
}

// Publisher wraps a Kafka writer tuned for small, frequent lifecycle events.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher builds a Publisher from cfg.
func NewPublisher(cfg PublisherConfig) *Publisher {
	var compression compress.Compression
	switch cfg.Compression {
	case "snappy":
		compression = compress.Snappy
	case "lz4":
		compression = compress.Lz4
	case "gzip":
		compression = compress.Gzip
	case "zstd":
		compression = compress.Zstd
	}

	var acks kafka.RequiredAcks
	switch cfg.RequiredAcks {
	case -1:
		acks = kafka.RequireAll
	case 0:
		acks = kafka.RequireNone
	default:
		acks = kafka.RequireOne
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // partition by connection id
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		Compression:  compression,
		Async:        cfg.Async,
		RequiredAcks: acks,
		MaxAttempts:  cfg.MaxAttempts,
	}

	return &Publisher{writer: writer}
}

// Publish sends ev keyed by its connection id. A publish failure is logged by
// the caller and never allowed to block the accept path; this method itself
// just surfaces the error.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: encoding event: %w", err)
	}

	msg := kafka.Message{Key: []byte(ev.ConnectionID), Value: payload}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: publishing event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
