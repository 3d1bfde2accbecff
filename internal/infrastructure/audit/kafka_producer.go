// Package audit implements the AuditPublisher contract. Security events
// such as refresh reuse detection and bulk revocations are published to a
// Kafka topic for downstream persistence and alerting; audit-log storage
// itself is outside this service.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/pkg/logger"
)

// KafkaConfig carries the producer settings.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

// KafkaProducer publishes audit events to Kafka.
type KafkaProducer struct {
	writer *kafka.Writer
	log    logger.Logger
}

// NewKafkaProducer builds a producer for the given brokers and topic.
func NewKafkaProducer(cfg KafkaConfig, log logger.Logger) *KafkaProducer {
	if log == nil {
		log = logger.NewNoop()
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaProducer{writer: writer, log: log.WithComponent("audit_producer")}
}

// Publish sends one event, keyed by user so events for the same identity
// stay ordered within a partition.
func (p *KafkaProducer) Publish(ctx context.Context, event models.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error(ctx, "failed to marshal audit event", err,
			logger.String("kind", string(event.Kind)))
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: payload,
	})
	if err != nil {
		p.log.Error(ctx, "failed to publish audit event", err,
			logger.String("kind", string(event.Kind)))
	}
	return err
}

// Close flushes and closes the underlying writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

var _ service.AuditPublisher = (*KafkaProducer)(nil)
