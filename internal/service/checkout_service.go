package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/events"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/gateway"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/metrics"
)

type CheckoutService struct {
	courses   CourseStore
	gateway   OrderGateway
	publisher CheckoutPublisher
	currency  string
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewCheckoutService(courses CourseStore, gw OrderGateway, publisher CheckoutPublisher, currency string, m *metrics.Metrics, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		courses:   courses,
		gateway:   gw,
		publisher: publisher,
		currency:  currency,
		metrics:   m,
		logger:    logger,
	}
}

// InitiateOrder prices the course set and opens a gateway order for it.
// Nothing is written to the platform store.
func (s *CheckoutService) InitiateOrder(ctx context.Context, userID string, courseIDs []string) (*domain.Order, error) {
	if err := validateCourseSet(courseIDs); err != nil {
		s.metrics.ObserveOrder("invalid")
		return nil, err
	}

	total := decimal.Zero
	for _, courseID := range courseIDs {
		course, err := s.courses.GetCourse(ctx, courseID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.metrics.ObserveOrder("not_found")
				return nil, fmt.Errorf("course %s: %w", courseID, err)
			}
			s.logger.Error("Failed to load course",
				zap.String("course_id", courseID),
				zap.Error(err))
			return nil, fmt.Errorf("failed to process course %s: %w", courseID, err)
		}

		if course.Price < 0 {
			s.metrics.ObserveOrder("invalid")
			s.logger.Error("Course has a negative price",
				zap.String("course_id", courseID),
				zap.Float64("price", course.Price))
			return nil, fmt.Errorf("%w: course %s has an invalid price", domain.ErrInvalidRequest, courseID)
		}

		if course.HasStudent(userID) {
			s.metrics.ObserveOrder("already_enrolled")
			return nil, fmt.Errorf("course %s: %w", courseID, domain.ErrAlreadyEnrolled)
		}

		total = total.Add(decimal.NewFromFloat(course.Price))
	}

	amount := total.Shift(2).Round(0).IntPart()
	if amount <= 0 {
		s.metrics.ObserveOrder("invalid")
		return nil, fmt.Errorf("%w: order total must be positive", domain.ErrInvalidRequest)
	}

	order, err := s.gateway.CreateOrder(ctx, gateway.OrderRequest{
		Amount:   amount,
		Currency: s.currency,
		Receipt:  uuid.NewString(),
		Notes: map[string]string{
			"user_id":    userID,
			"course_ids": strings.Join(courseIDs, noteListSep),
		},
	})
	if err != nil {
		s.metrics.ObserveOrder("gateway_error")
		s.logger.Error("Failed to create gateway order",
			zap.String("user_id", userID),
			zap.Int64("amount", amount),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	event := events.OrderInitiatedEvent{
		EventID:   uuid.NewString(),
		OrderID:   order.ID,
		UserID:    userID,
		CourseIDs: courseIDs,
		Amount:    order.Amount,
		Currency:  order.Currency,
		Receipt:   order.Receipt,
		Timestamp: time.Now(),
		RequestID: domain.RequestIDFromContext(ctx),
	}
	if err := s.publisher.PublishOrderInitiated(ctx, event); err != nil {
		s.logger.Error("Failed to publish event",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}

	s.metrics.ObserveOrder("created")
	s.logger.Info("Order initiated",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Int64("amount", order.Amount),
		zap.Strings("course_ids", courseIDs))

	return order, nil
}
