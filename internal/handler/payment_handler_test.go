package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
	"github.com/cloud-wave-best-zizon/enrollment-service/pkg/middleware"
)

type mockCheckout struct {
	InitiateOrderFunc func(ctx context.Context, userID string, courseIDs []string) (*domain.Order, error)
}

func (m *mockCheckout) InitiateOrder(ctx context.Context, userID string, courseIDs []string) (*domain.Order, error) {
	return m.InitiateOrderFunc(ctx, userID, courseIDs)
}

type mockEnrollment struct {
	VerifyPaymentFunc func(ctx context.Context, userID string, req domain.VerifyPaymentRequest) (*domain.EnrollmentResult, error)
}

func (m *mockEnrollment) VerifyPayment(ctx context.Context, userID string, req domain.VerifyPaymentRequest) (*domain.EnrollmentResult, error) {
	return m.VerifyPaymentFunc(ctx, userID, req)
}

type mockReceipts struct {
	SendFunc func(ctx context.Context, userID string, req domain.PaymentSuccessEmailRequest) error
}

func (m *mockReceipts) SendPaymentSuccessEmail(ctx context.Context, userID string, req domain.PaymentSuccessEmailRequest) error {
	return m.SendFunc(ctx, userID, req)
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(h *PaymentHandler) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, "u1")
		c.Next()
	})
	h.Register(r.Group("/api/v1/payments"))
	return r
}

func post(t *testing.T, r http.Handler, path string, body any) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestCapturePayment_Success(t *testing.T) {
	checkout := &mockCheckout{InitiateOrderFunc: func(_ context.Context, userID string, courseIDs []string) (*domain.Order, error) {
		assert.Equal(t, "u1", userID)
		assert.Equal(t, []string{"c1", "c2"}, courseIDs)
		return &domain.Order{ID: "order_1", Amount: 130000, Currency: "INR", Receipt: "r"}, nil
	}}
	r := newRouter(NewPaymentHandler(checkout, nil, nil, zap.NewNop()))

	w, resp := post(t, r, "/api/v1/payments/capturePayment", map[string]any{"courseIds": []string{"c1", "c2"}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.JSONEq(t, `{"id":"order_1","amount":130000,"currency":"INR"}`, string(resp.Data))
}

func TestCapturePayment_ErrorMapping(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{fmt.Errorf("%w: empty", domain.ErrInvalidRequest), http.StatusBadRequest, "Please Provide valid Course IDs"},
		{fmt.Errorf("course c9: %w", domain.ErrCourseNotFound), http.StatusNotFound, "Could not find the Course"},
		{fmt.Errorf("course c1: %w", domain.ErrAlreadyEnrolled), http.StatusOK, "Student is already Enrolled"},
		{fmt.Errorf("%w: 503", domain.ErrGatewayUnavailable), http.StatusInternalServerError, "Could not initiate order."},
		{errors.New("dynamodb throttled"), http.StatusInternalServerError, "Error processing courses"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			checkout := &mockCheckout{InitiateOrderFunc: func(context.Context, string, []string) (*domain.Order, error) {
				return nil, tt.err
			}}
			r := newRouter(NewPaymentHandler(checkout, nil, nil, zap.NewNop()))

			w, resp := post(t, r, "/api/v1/payments/capturePayment", map[string]any{"courseIds": []string{"c1"}})

			assert.Equal(t, tt.status, w.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestCapturePayment_MalformedBody(t *testing.T) {
	checkout := &mockCheckout{InitiateOrderFunc: func(context.Context, string, []string) (*domain.Order, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	r := newRouter(NewPaymentHandler(checkout, nil, nil, zap.NewNop()))

	w, resp := post(t, r, "/api/v1/payments/capturePayment", `{"courseIds": "c1"`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
}

func TestVerifyPayment_Success(t *testing.T) {
	enrollment := &mockEnrollment{VerifyPaymentFunc: func(_ context.Context, userID string, req domain.VerifyPaymentRequest) (*domain.EnrollmentResult, error) {
		assert.Equal(t, "order_1", req.GatewayOrderID)
		assert.Equal(t, "pay_1", req.GatewayPaymentID)
		assert.Equal(t, "sig", req.Signature)
		return &domain.EnrollmentResult{
			OrderID:   req.GatewayOrderID,
			UserID:    userID,
			Completed: true,
			Courses: []domain.CourseOutcome{
				{CourseID: "c1", LastStep: domain.StepNotified, Status: domain.CourseStatusEnrolled},
			},
		}, nil
	}}
	r := newRouter(NewPaymentHandler(nil, enrollment, nil, zap.NewNop()))

	w, resp := post(t, r, "/api/v1/payments/verifyPayment", map[string]any{
		"gatewayOrderId":   "order_1",
		"gatewayPaymentId": "pay_1",
		"signature":        "sig",
		"courseIds":        []string{"c1"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "Payment Verified", resp.Message)

	var result map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	courses := result["courses"].([]any)
	assert.Equal(t, "notified", courses[0].(map[string]any)["last_step"])
}

func TestVerifyPayment_Duplicate(t *testing.T) {
	enrollment := &mockEnrollment{VerifyPaymentFunc: func(context.Context, string, domain.VerifyPaymentRequest) (*domain.EnrollmentResult, error) {
		return &domain.EnrollmentResult{Completed: true, Duplicate: true}, nil
	}}
	r := newRouter(NewPaymentHandler(nil, enrollment, nil, zap.NewNop()))

	w, resp := post(t, r, "/api/v1/payments/verifyPayment", map[string]any{"gatewayOrderId": "o"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Payment already processed", resp.Message)
}

func TestVerifyPayment_ErrorMapping(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{fmt.Errorf("%w: missing", domain.ErrInvalidRequest), http.StatusBadRequest, "Missing required payment details"},
		{domain.ErrSignatureMismatch, http.StatusBadRequest, "Payment verification failed"},
		{domain.ErrPaymentInProgress, http.StatusConflict, "Payment is already being processed"},
		{fmt.Errorf("%w: course c2: %w", domain.ErrPartialEnrollment, domain.ErrCourseNotFound), http.StatusInternalServerError, "Error enrolling student"},
		{errors.New("boom"), http.StatusInternalServerError, "Could not verify payment"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			enrollment := &mockEnrollment{VerifyPaymentFunc: func(context.Context, string, domain.VerifyPaymentRequest) (*domain.EnrollmentResult, error) {
				return nil, tt.err
			}}
			r := newRouter(NewPaymentHandler(nil, enrollment, nil, zap.NewNop()))

			w, resp := post(t, r, "/api/v1/payments/verifyPayment", map[string]any{"gatewayOrderId": "o"})

			assert.Equal(t, tt.status, w.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestSendPaymentSuccessEmail(t *testing.T) {
	receipts := &mockReceipts{SendFunc: func(_ context.Context, userID string, req domain.PaymentSuccessEmailRequest) error {
		assert.Equal(t, "u1", userID)
		assert.Equal(t, int64(50000), req.Amount)
		return nil
	}}
	r := newRouter(NewPaymentHandler(nil, nil, receipts, zap.NewNop()))

	w, resp := post(t, r, "/api/v1/payments/sendPaymentSuccessEmail", map[string]any{
		"orderId": "order_1", "paymentId": "pay_1", "amount": 50000,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "Payment success email sent", resp.Message)
}

func TestSendPaymentSuccessEmail_ErrorMapping(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{domain.ErrInvalidRequest, http.StatusBadRequest, "Missing email details"},
		{domain.ErrUserNotFound, http.StatusNotFound, "User not found"},
		{domain.ErrNotificationFailed, http.StatusInternalServerError, "Could not send email"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			receipts := &mockReceipts{SendFunc: func(context.Context, string, domain.PaymentSuccessEmailRequest) error {
				return tt.err
			}}
			r := newRouter(NewPaymentHandler(nil, nil, receipts, zap.NewNop()))

			w, resp := post(t, r, "/api/v1/payments/sendPaymentSuccessEmail", map[string]any{"orderId": "o"})

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

type stubChecker struct{ err error }

func (s stubChecker) HealthCheck() error { return s.err }

func TestHealth(t *testing.T) {
	r := gin.New()
	r.GET("/ok", Health("enrollment-service", map[string]HealthChecker{"kafka": stubChecker{}}))
	r.GET("/bad", Health("enrollment-service", map[string]HealthChecker{"kafka": stubChecker{err: errors.New("down")}}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"enrollment-service","kafka":"healthy"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bad", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"kafka":"unhealthy"`)
}
