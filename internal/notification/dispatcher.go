package notification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
)

// Dispatcher sends best-effort notifications. It never retries.
type Dispatcher struct {
	mailer  Mailer
	timeout time.Duration
	logger  *zap.Logger
}

func NewDispatcher(mailer Mailer, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{mailer: mailer, timeout: timeout, logger: logger}
}

// Notify renders and sends one message. Failures are logged and returned
// wrapped in domain.ErrNotificationFailed.
func (d *Dispatcher) Notify(ctx context.Context, recipient, subject string, render TemplateFunc) error {
	body, err := render()
	if err != nil {
		d.logger.Error("Failed to render notification",
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("%w: render: %v", domain.ErrNotificationFailed, err)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	if err := d.mailer.Send(ctx, recipient, subject, body); err != nil {
		d.logger.Error("Failed to send notification",
			zap.String("recipient", recipient),
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrNotificationFailed, err)
	}

	d.logger.Info("Notification sent",
		zap.String("recipient", recipient),
		zap.String("subject", subject))
	return nil
}
