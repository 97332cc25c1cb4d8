package checkout

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/events"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/gateway"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/handler"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/notification"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/repository"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/service"
	"github.com/cloud-wave-best-zizon/enrollment-service/pkg/middleware"
)

const (
	e2eJWTSecret     = "jwt-secret"
	e2eGatewaySecret = "sandbox-secret"
)

type capturingMailer struct {
	subjects chan string
}

func (m *capturingMailer) Send(_ context.Context, _, subject, _ string) error {
	m.subjects <- subject
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *repository.MemoryStore, *capturingMailer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	ctx := context.Background()

	store := repository.NewMemoryStore()
	require.NoError(t, store.PutCourse(ctx, &domain.Course{CourseID: "c1", CourseName: "Go Basics", Price: 500}))
	require.NoError(t, store.PutUser(ctx, &domain.UserProfile{UserID: "u1", Email: "u1@example.com", FirstName: "Asha", LastName: "Rao"}))

	mailer := &capturingMailer{subjects: make(chan string, 8)}
	dispatcher := notification.NewDispatcher(mailer, time.Second, logger)
	sandbox := gateway.NewSandbox(e2eGatewaySecret)
	publisher := events.NoopPublisher{}

	checkoutSvc := service.NewCheckoutService(store, sandbox, publisher, "INR", nil, logger)
	enrollmentSvc := service.NewEnrollmentService(store, sandbox, dispatcher, publisher, publisher, nil, logger)
	notificationSvc := service.NewNotificationService(store, dispatcher, nil, logger)

	r := gin.New()
	r.Use(middleware.RequestID())
	payments := r.Group("/api/v1/payments", middleware.Auth([]byte(e2eJWTSecret)))
	handler.NewPaymentHandler(checkoutSvc, enrollmentSvc, notificationSvc, logger).Register(payments)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store, mailer
}

func TestCheckoutAgainstServer(t *testing.T) {
	srv, store, mailer := newTestServer(t)
	token, err := middleware.IssueToken([]byte(e2eJWTSecret), "u1", "u1@example.com", time.Hour)
	require.NoError(t, err)

	var out bytes.Buffer
	c := NewCoordinator(
		NewHTTPClient(srv.URL, 5*time.Second),
		SandboxLoader{KeySecret: e2eGatewaySecret},
		NewTerminalUI(&out),
		Config{PublicKey: "rzp_test_key"},
		zap.NewNop(),
	)

	outcome := c.BuyCourses(context.Background(), token, []string{"c1"}, User{ID: "u1", FirstName: "Asha", Email: "u1@example.com"})
	c.Wait()

	require.NoError(t, outcome.Err)
	assert.Equal(t, StateEnrolled, outcome.State)
	assert.Equal(t, int64(50000), outcome.Order.Amount)
	require.NotNil(t, outcome.Result)
	assert.True(t, outcome.Result.Completed)
	assert.Contains(t, out.String(), EnrolledCoursesPath)

	user, err := store.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, user.Courses)

	subjects := []string{<-mailer.subjects, <-mailer.subjects}
	assert.ElementsMatch(t, []string{"Payment Received", "Successfully Enrolled in Go Basics"}, subjects)

	again := c.BuyCourses(context.Background(), token, []string{"c1"}, User{ID: "u1"})
	assert.Equal(t, StateFailed, again.State)
	assert.Equal(t, "Student is already Enrolled", again.Message)
}

func TestCheckoutAgainstServer_WrongWidgetSecret(t *testing.T) {
	srv, store, _ := newTestServer(t)
	token, err := middleware.IssueToken([]byte(e2eJWTSecret), "u1", "", time.Hour)
	require.NoError(t, err)

	c := NewCoordinator(
		NewHTTPClient(srv.URL, 5*time.Second),
		SandboxLoader{KeySecret: "forged"},
		NewTerminalUI(&bytes.Buffer{}),
		Config{},
		zap.NewNop(),
	)

	outcome := c.BuyCourses(context.Background(), token, []string{"c1"}, User{ID: "u1"})
	c.Wait()

	assert.Equal(t, StateFailed, outcome.State)
	assert.Equal(t, MsgVerifyFailed, outcome.Message)
	var apiErr *APIError
	require.ErrorAs(t, outcome.Err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Payment verification failed", apiErr.Message)

	user, err := store.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, user.Courses)
}

func TestHTTPClient_Unauthorized(t *testing.T) {
	srv, _, _ := newTestServer(t)

	_, err := NewHTTPClient(srv.URL, time.Second).CreateOrder(context.Background(), "bad-token", []string{"c1"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Token is invalid", apiErr.Message)
}

func TestHTTPClient_VerifyPaymentDecodesSagaSteps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/payments/verifyPayment", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"Payment Verified","data":{"order_id":"order_1","user_id":"u1","completed":true,` +
			`"courses":[{"course_id":"c1","last_step":"notified","status":"enrolled"}]}}`))
	}))
	defer srv.Close()

	result, err := NewHTTPClient(srv.URL, time.Second).VerifyPayment(context.Background(), "token", domain.VerifyPaymentRequest{})

	require.NoError(t, err)
	assert.True(t, result.Completed)
	require.Len(t, result.Courses, 1)
	assert.Equal(t, domain.StepNotified, result.Courses[0].LastStep)
}

func TestSandboxLoader(t *testing.T) {
	_, err := SandboxLoader{Unavailable: true}.Load(context.Background())
	assert.Error(t, err)

	w, err := SandboxLoader{KeySecret: "s", Decline: true}.Load(context.Background())
	require.NoError(t, err)

	failures := make(chan WidgetFailure, 1)
	require.NoError(t, w.Open(WidgetOptions{OrderID: "order_1"}, Callbacks{
		OnSuccess: func(domain.PaymentProof) { t.Error("unexpected success") },
		OnFailure: func(f WidgetFailure) { failures <- f },
	}))
	assert.Equal(t, "BAD_REQUEST_ERROR", (<-failures).Code)

	assert.Error(t, w.Open(WidgetOptions{}, Callbacks{}))
}
