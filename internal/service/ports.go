package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/events"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/gateway"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/notification"
)

type CourseStore interface {
	GetCourse(ctx context.Context, courseID string) (*domain.Course, error)
	AddStudent(ctx context.Context, courseID, userID string) (*domain.Course, error)
}

type UserStore interface {
	GetUser(ctx context.Context, userID string) (*domain.UserProfile, error)
	AddCourseToProfile(ctx context.Context, userID, courseID, progressID string) (*domain.UserProfile, error)
}

type ProgressStore interface {
	CreateProgress(ctx context.Context, courseID, userID string) (*domain.ProgressRecord, error)
}

type PaymentStore interface {
	ClaimPayment(ctx context.Context, rec domain.PaymentRecord) (*domain.PaymentRecord, error)
	UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus) error
}

// EnrollmentStore is everything the enrollment saga writes to.
type EnrollmentStore interface {
	CourseStore
	UserStore
	ProgressStore
	PaymentStore
}

type OrderGateway interface {
	CreateOrder(ctx context.Context, req gateway.OrderRequest) (*domain.Order, error)
}

type SignatureVerifier interface {
	VerifySignature(proof domain.PaymentProof) bool
}

type OrderFetcher interface {
	FetchOrder(ctx context.Context, orderID string) (*domain.Order, error)
}

// PaymentGateway authenticates a payment proof and resolves the order it
// was made against.
type PaymentGateway interface {
	SignatureVerifier
	OrderFetcher
}

type Notifier interface {
	Notify(ctx context.Context, recipient, subject string, render notification.TemplateFunc) error
}

type CheckoutPublisher interface {
	PublishOrderInitiated(ctx context.Context, event events.OrderInitiatedEvent) error
}

type EnrollmentPublisher interface {
	PublishEnrollmentCompleted(ctx context.Context, event events.EnrollmentCompletedEvent) error
}

type CompensationPublisher interface {
	PublishCompensation(ctx context.Context, event events.CompensationEvent) error
}

// validateCourseSet enforces a non-empty set of distinct, non-blank ids.
func validateCourseSet(courseIDs []string) error {
	if len(courseIDs) == 0 {
		return fmt.Errorf("%w: please provide course ids", domain.ErrInvalidRequest)
	}
	seen := make(map[string]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: blank course id", domain.ErrInvalidRequest)
		}
		if strings.Contains(id, noteListSep) {
			return fmt.Errorf("%w: malformed course id %s", domain.ErrInvalidRequest, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate course id %s", domain.ErrInvalidRequest, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

const noteListSep = ","

func splitNoteList(v string) []string {
	if v == "" {
		return nil
	}
	return strings.Split(v, noteListSep)
}

// sameCourseSet compares two validated id lists ignoring order.
func sameCourseSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return len(set) == len(b)
}
