package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/metrics"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/notification"
)

type userReader interface {
	GetUser(ctx context.Context, userID string) (*domain.UserProfile, error)
}

type NotificationService struct {
	users    userReader
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewNotificationService(users userReader, notifier Notifier, m *metrics.Metrics, logger *zap.Logger) *NotificationService {
	return &NotificationService{users: users, notifier: notifier, metrics: m, logger: logger}
}

// SendPaymentSuccessEmail mails the payment receipt. Unlike enrollment mail,
// a delivery failure is returned to the caller.
func (s *NotificationService) SendPaymentSuccessEmail(ctx context.Context, userID string, req domain.PaymentSuccessEmailRequest) error {
	if userID == "" || req.OrderID == "" || req.PaymentID == "" || req.Amount <= 0 {
		return fmt.Errorf("%w: missing email details", domain.ErrInvalidRequest)
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	err = s.notifier.Notify(ctx, user.Email, "Payment Received",
		notification.PaymentSuccessEmail(user.FullName(), req.Amount, req.OrderID, req.PaymentID))
	s.metrics.ObserveNotification("payment", err)
	if err != nil {
		return err
	}

	s.logger.Info("Payment success email sent",
		zap.String("order_id", req.OrderID),
		zap.String("user_id", userID))
	return nil
}
