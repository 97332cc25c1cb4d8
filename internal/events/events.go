package events

import (
	"context"
	"time"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
)

type OrderInitiatedEvent struct {
	EventID   string    `json:"event_id"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	CourseIDs []string  `json:"course_ids"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Receipt   string    `json:"receipt"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

type EnrollmentCompletedEvent struct {
	EventID   string    `json:"event_id"`
	OrderID   string    `json:"order_id"`
	PaymentID string    `json:"payment_id"`
	UserID    string    `json:"user_id"`
	CourseIDs []string  `json:"course_ids"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// CompensationEvent reports a paid order whose enrollment stopped part way.
// Courses carries the per-course step log so a consumer can refund or
// finish the batch.
type CompensationEvent struct {
	EventID        string                 `json:"event_id"`
	OrderID        string                 `json:"order_id"`
	PaymentID      string                 `json:"payment_id"`
	UserID         string                 `json:"user_id"`
	FailedCourseID string                 `json:"failed_course_id"`
	Reason         string                 `json:"reason"`
	Courses        []domain.CourseOutcome `json:"courses"`
	Timestamp      time.Time              `json:"timestamp"`
	RequestID      string                 `json:"request_id"`
}

// NoopPublisher drops every event. It is used when KAFKA_BROKERS is empty.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderInitiated(context.Context, OrderInitiatedEvent) error { return nil }

func (NoopPublisher) PublishEnrollmentCompleted(context.Context, EnrollmentCompletedEvent) error {
	return nil
}

func (NoopPublisher) PublishCompensation(context.Context, CompensationEvent) error { return nil }

func (NoopPublisher) HealthCheck() error { return nil }

func (NoopPublisher) Close() error { return nil }
