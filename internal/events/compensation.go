package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type CompensationProducer struct {
	writer messageWriter
	logger *zap.Logger
}

func NewCompensationProducer(brokers []string, topic string, logger *zap.Logger) *CompensationProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return &CompensationProducer{writer: writer, logger: logger}
}

// PublishCompensation writes the event keyed by order id, so every
// compensation for one order lands on the same partition.
func (p *CompensationProducer) PublishCompensation(ctx context.Context, event CompensationEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal compensation event", zap.Error(err))
		return err
	}

	msg := kafka.Message{
		Key:   []byte("ORDER#" + event.OrderID),
		Value: eventBytes,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("enrollment.compensation")},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish compensation event",
			zap.String("event_id", event.EventID),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
		return err
	}

	p.logger.Info("Compensation event published",
		zap.String("event_id", event.EventID),
		zap.String("order_id", event.OrderID),
		zap.String("failed_course_id", event.FailedCourseID),
		zap.String("reason", strings.TrimSpace(event.Reason)))

	return nil
}

func (p *CompensationProducer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
