package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// rawProducer is the subset of *kafka.Producer used here.
type rawProducer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Events() chan kafka.Event
	GetMetadata(topic *string, allTopics bool, timeoutMs int) (*kafka.Metadata, error)
	Flush(timeoutMs int) int
	Close()
}

// KafkaProducer publishes checkout lifecycle events.
type KafkaProducer struct {
	producer rawProducer
	topic    string
	logger   *zap.Logger
}

func NewKafkaProducer(brokers, topic string, logger *zap.Logger) (*KafkaProducer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
		"retries":           10,
	})
	if err != nil {
		return nil, err
	}
	return newKafkaProducer(p, topic, logger), nil
}

func newKafkaProducer(p rawProducer, topic string, logger *zap.Logger) *KafkaProducer {
	kp := &KafkaProducer{producer: p, topic: topic, logger: logger}
	go kp.watchDeliveries()
	return kp
}

func (p *KafkaProducer) watchDeliveries() {
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				p.logger.Error("Event delivery failed",
					zap.String("key", string(ev.Key)),
					zap.Error(ev.TopicPartition.Error))
			}
		case kafka.Error:
			p.logger.Warn("Kafka producer error", zap.Error(ev))
		}
	}
}

func (p *KafkaProducer) PublishOrderInitiated(_ context.Context, event OrderInitiatedEvent) error {
	return p.publish("ORDER#"+event.OrderID, "order.initiated", event)
}

func (p *KafkaProducer) PublishEnrollmentCompleted(_ context.Context, event EnrollmentCompletedEvent) error {
	return p.publish("ORDER#"+event.OrderID, "enrollment.completed", event)
}

func (p *KafkaProducer) publish(key, eventType string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	topic := p.topic
	return p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}, nil)
}

func (p *KafkaProducer) HealthCheck() error {
	_, err := p.producer.GetMetadata(&p.topic, false, 2000)
	return err
}

func (p *KafkaProducer) Close() error {
	p.producer.Flush(5000)
	p.producer.Close()
	return nil
}
