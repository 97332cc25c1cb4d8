package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/events"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/metrics"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/notification"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/repository"
)

type EnrollmentService struct {
	store        EnrollmentStore
	gateway      PaymentGateway
	notifier     Notifier
	publisher    EnrollmentPublisher
	compensation CompensationPublisher
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

func NewEnrollmentService(
	store EnrollmentStore,
	gw PaymentGateway,
	notifier Notifier,
	publisher EnrollmentPublisher,
	compensation CompensationPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		store:        store,
		gateway:      gw,
		notifier:     notifier,
		publisher:    publisher,
		compensation: compensation,
		metrics:      m,
		logger:       logger,
	}
}

// VerifyPayment authenticates the gateway proof and, once per gateway order,
// enrolls the user in the requested courses. The requested courses and the
// caller must match the ones the gateway order was opened for.
func (s *EnrollmentService) VerifyPayment(ctx context.Context, userID string, req domain.VerifyPaymentRequest) (*domain.EnrollmentResult, error) {
	proof := req.Proof()
	if userID == "" || proof.OrderID == "" || proof.PaymentID == "" || proof.Signature == "" {
		s.metrics.ObserveVerification("invalid")
		return nil, fmt.Errorf("%w: missing required payment details", domain.ErrInvalidRequest)
	}
	if err := validateCourseSet(req.CourseIDs); err != nil {
		s.metrics.ObserveVerification("invalid")
		return nil, err
	}

	if !s.gateway.VerifySignature(proof) {
		s.metrics.ObserveVerification("signature_mismatch")
		s.logger.Warn("Payment signature mismatch",
			zap.String("event", "security"),
			zap.String("order_id", proof.OrderID),
			zap.String("payment_id", proof.PaymentID),
			zap.String("user_id", userID),
			zap.String("request_id", domain.RequestIDFromContext(ctx)))
		return nil, domain.ErrSignatureMismatch
	}

	if err := s.checkOrderCoverage(ctx, userID, proof, req.CourseIDs); err != nil {
		return nil, err
	}

	existing, err := s.store.ClaimPayment(ctx, domain.PaymentRecord{
		OrderID:   proof.OrderID,
		PaymentID: proof.PaymentID,
		UserID:    userID,
		CourseIDs: req.CourseIDs,
		Status:    domain.PaymentStatusProcessing,
	})
	if errors.Is(err, repository.ErrPaymentAlreadyClaimed) {
		return s.duplicate(existing, userID)
	}
	if err != nil {
		s.logger.Error("Failed to claim payment",
			zap.String("order_id", proof.OrderID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	result, enrollErr := s.Enroll(ctx, userID, proof.OrderID, req.CourseIDs)

	status := domain.PaymentStatusCompleted
	if enrollErr != nil {
		status = domain.PaymentStatusPartialFailure
	}
	if err := s.store.UpdatePaymentStatus(ctx, proof.OrderID, status); err != nil {
		s.logger.Error("Failed to update payment status",
			zap.String("order_id", proof.OrderID),
			zap.String("status", string(status)),
			zap.Error(err))
	}

	if enrollErr != nil {
		s.metrics.ObserveVerification("partial_failure")
		s.publishCompensation(ctx, proof, result, enrollErr)
		return result, enrollErr
	}

	s.metrics.ObserveVerification("verified")
	event := events.EnrollmentCompletedEvent{
		EventID:   uuid.NewString(),
		OrderID:   proof.OrderID,
		PaymentID: proof.PaymentID,
		UserID:    userID,
		CourseIDs: result.EnrolledCourseIDs(),
		Timestamp: time.Now(),
		RequestID: domain.RequestIDFromContext(ctx),
	}
	if err := s.publisher.PublishEnrollmentCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish event",
			zap.String("order_id", proof.OrderID),
			zap.Error(err))
	}

	return result, nil
}

// checkOrderCoverage compares the request with the notes written on the
// gateway order at checkout.
func (s *EnrollmentService) checkOrderCoverage(ctx context.Context, userID string, proof domain.PaymentProof, courseIDs []string) error {
	order, err := s.gateway.FetchOrder(ctx, proof.OrderID)
	if err != nil {
		s.metrics.ObserveVerification("gateway_error")
		s.logger.Error("Failed to fetch gateway order",
			zap.String("order_id", proof.OrderID),
			zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	paidFor := splitNoteList(order.Notes["course_ids"])
	if order.Notes["user_id"] == userID && sameCourseSet(paidFor, courseIDs) {
		return nil
	}

	s.metrics.ObserveVerification("order_mismatch")
	s.logger.Warn("Payment order does not cover request",
		zap.String("event", "security"),
		zap.String("order_id", proof.OrderID),
		zap.String("user_id", userID),
		zap.String("order_user_id", order.Notes["user_id"]),
		zap.Strings("requested", courseIDs),
		zap.Strings("paid_for", paidFor),
		zap.String("request_id", domain.RequestIDFromContext(ctx)))
	return fmt.Errorf("%w: order %s does not cover the requested courses", domain.ErrSignatureMismatch, proof.OrderID)
}

func (s *EnrollmentService) duplicate(existing *domain.PaymentRecord, userID string) (*domain.EnrollmentResult, error) {
	if existing == nil || existing.UserID != userID || existing.Status != domain.PaymentStatusCompleted {
		s.metrics.ObserveVerification("in_progress")
		return nil, domain.ErrPaymentInProgress
	}

	s.metrics.ObserveVerification("duplicate")
	s.logger.Info("Payment already processed",
		zap.String("order_id", existing.OrderID),
		zap.String("user_id", userID))

	result := &domain.EnrollmentResult{
		OrderID:   existing.OrderID,
		UserID:    userID,
		Completed: true,
		Duplicate: true,
	}
	for _, id := range existing.CourseIDs {
		result.Courses = append(result.Courses, domain.CourseOutcome{
			CourseID: id,
			LastStep: domain.StepProfileUpdated,
			Status:   domain.CourseStatusEnrolled,
		})
	}
	return result, nil
}

// Enroll runs the per-course saga in order. The first failing step stops the
// batch; courses already processed stay enrolled and the returned result
// records the last committed step of each course.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, orderID string, courseIDs []string) (*domain.EnrollmentResult, error) {
	result := &domain.EnrollmentResult{
		OrderID: orderID,
		UserID:  userID,
		Courses: make([]domain.CourseOutcome, 0, len(courseIDs)),
	}

	for i, courseID := range courseIDs {
		outcome, err := s.enrollCourse(ctx, userID, courseID)
		result.Courses = append(result.Courses, outcome)
		if err != nil {
			s.metrics.ObserveEnrollment(string(domain.CourseStatusFailed))
			for _, rest := range courseIDs[i+1:] {
				result.Courses = append(result.Courses, domain.CourseOutcome{
					CourseID: rest,
					Status:   domain.CourseStatusSkipped,
				})
			}
			s.logger.Error("Enrollment stopped",
				zap.String("order_id", orderID),
				zap.String("user_id", userID),
				zap.String("course_id", courseID),
				zap.Stringer("last_step", outcome.LastStep),
				zap.Error(err))
			return result, fmt.Errorf("%w: course %s: %w", domain.ErrPartialEnrollment, courseID, err)
		}
		s.metrics.ObserveEnrollment(string(domain.CourseStatusEnrolled))
	}

	result.Completed = true
	s.logger.Info("Enrollment completed",
		zap.String("order_id", orderID),
		zap.String("user_id", userID),
		zap.Int("courses", len(courseIDs)))
	return result, nil
}

func (s *EnrollmentService) enrollCourse(ctx context.Context, userID, courseID string) (domain.CourseOutcome, error) {
	outcome := domain.CourseOutcome{
		CourseID: courseID,
		LastStep: domain.StepNone,
		Status:   domain.CourseStatusFailed,
	}
	fail := func(err error) (domain.CourseOutcome, error) {
		outcome.Error = err.Error()
		return outcome, err
	}

	course, err := s.store.AddStudent(ctx, courseID, userID)
	if err != nil {
		return fail(err)
	}
	outcome.LastStep = domain.StepStudentAdded
	outcome.CourseName = course.CourseName

	progress, err := s.store.CreateProgress(ctx, courseID, userID)
	if err != nil {
		return fail(err)
	}
	outcome.LastStep = domain.StepProgressCreated
	outcome.ProgressID = progress.ProgressID

	profile, err := s.store.AddCourseToProfile(ctx, userID, courseID, progress.ProgressID)
	if err != nil {
		return fail(err)
	}
	outcome.LastStep = domain.StepProfileUpdated
	outcome.Status = domain.CourseStatusEnrolled

	err = s.notifier.Notify(ctx, profile.Email,
		"Successfully Enrolled in "+course.CourseName,
		notification.CourseEnrollmentEmail(course.CourseName, profile.FullName()))
	s.metrics.ObserveNotification("enrollment", err)
	if err == nil {
		outcome.LastStep = domain.StepNotified
	}

	return outcome, nil
}

func (s *EnrollmentService) publishCompensation(ctx context.Context, proof domain.PaymentProof, result *domain.EnrollmentResult, cause error) {
	failed, _ := result.FailedCourse()
	event := events.CompensationEvent{
		EventID:        uuid.NewString(),
		OrderID:        proof.OrderID,
		PaymentID:      proof.PaymentID,
		UserID:         result.UserID,
		FailedCourseID: failed.CourseID,
		Reason:         cause.Error(),
		Courses:        result.Courses,
		Timestamp:      time.Now(),
		RequestID:      domain.RequestIDFromContext(ctx),
	}
	if err := s.compensation.PublishCompensation(ctx, event); err != nil {
		s.logger.Error("Failed to publish compensation event",
			zap.String("order_id", proof.OrderID),
			zap.Error(err))
	}
}
