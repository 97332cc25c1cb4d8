package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
	"github.com/cloud-wave-best-zizon/enrollment-service/pkg/middleware"
)

type OrderInitiator interface {
	InitiateOrder(ctx context.Context, userID string, courseIDs []string) (*domain.Order, error)
}

type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, userID string, req domain.VerifyPaymentRequest) (*domain.EnrollmentResult, error)
}

type ReceiptMailer interface {
	SendPaymentSuccessEmail(ctx context.Context, userID string, req domain.PaymentSuccessEmailRequest) error
}

type PaymentHandler struct {
	checkout     OrderInitiator
	enrollment   PaymentVerifier
	notification ReceiptMailer
	logger       *zap.Logger
}

func NewPaymentHandler(checkout OrderInitiator, enrollment PaymentVerifier, notification ReceiptMailer, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		checkout:     checkout,
		enrollment:   enrollment,
		notification: notification,
		logger:       logger,
	}
}

func (h *PaymentHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/capturePayment", h.CapturePayment)
	rg.POST("/verifyPayment", h.VerifyPayment)
	rg.POST("/sendPaymentSuccessEmail", h.SendPaymentSuccessEmail)
}

func (h *PaymentHandler) CapturePayment(c *gin.Context) {
	var req domain.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	userID := c.GetString(middleware.UserIDKey)
	order, err := h.checkout.InitiateOrder(c.Request.Context(), userID, req.CourseIDs)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			h.fail(c, http.StatusBadRequest, "Please Provide valid Course IDs", err)
		case errors.Is(err, domain.ErrNotFound):
			h.fail(c, http.StatusNotFound, "Could not find the Course", err)
		case errors.Is(err, domain.ErrAlreadyEnrolled):
			h.fail(c, http.StatusOK, "Student is already Enrolled", err)
		case errors.Is(err, domain.ErrGatewayUnavailable):
			h.fail(c, http.StatusInternalServerError, "Could not initiate order.", err)
		default:
			h.fail(c, http.StatusInternalServerError, "Error processing courses", err)
		}
		return
	}

	c.JSON(http.StatusOK, domain.APIResponse{
		Success: true,
		Data: domain.OrderData{
			ID:       order.ID,
			Amount:   order.Amount,
			Currency: order.Currency,
		},
	})
}

func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	var req domain.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "Missing required payment details", err)
		return
	}

	userID := c.GetString(middleware.UserIDKey)
	result, err := h.enrollment.VerifyPayment(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			h.fail(c, http.StatusBadRequest, "Missing required payment details", err)
		case errors.Is(err, domain.ErrSignatureMismatch):
			h.fail(c, http.StatusBadRequest, "Payment verification failed", err)
		case errors.Is(err, domain.ErrPaymentInProgress):
			h.fail(c, http.StatusConflict, "Payment is already being processed", err)
		case errors.Is(err, domain.ErrPartialEnrollment):
			h.fail(c, http.StatusInternalServerError, "Error enrolling student", err)
		default:
			h.fail(c, http.StatusInternalServerError, "Could not verify payment", err)
		}
		return
	}

	message := "Payment Verified"
	if result.Duplicate {
		message = "Payment already processed"
	}
	c.JSON(http.StatusOK, domain.APIResponse{
		Success: true,
		Message: message,
		Data:    result,
	})
}

func (h *PaymentHandler) SendPaymentSuccessEmail(c *gin.Context) {
	var req domain.PaymentSuccessEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "Missing email details", err)
		return
	}

	userID := c.GetString(middleware.UserIDKey)
	if err := h.notification.SendPaymentSuccessEmail(c.Request.Context(), userID, req); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			h.fail(c, http.StatusBadRequest, "Missing email details", err)
		case errors.Is(err, domain.ErrNotFound):
			h.fail(c, http.StatusNotFound, "User not found", err)
		default:
			h.fail(c, http.StatusInternalServerError, "Could not send email", err)
		}
		return
	}

	c.JSON(http.StatusOK, domain.APIResponse{
		Success: true,
		Message: "Payment success email sent",
	})
}

func (h *PaymentHandler) fail(c *gin.Context, status int, message string, err error) {
	fields := []zap.Field{
		zap.String("request_id", c.GetString(middleware.RequestIDKey)),
		zap.String("user_id", c.GetString(middleware.UserIDKey)),
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, fields...)
	} else {
		h.logger.Info(message, fields...)
	}

	c.JSON(status, domain.APIResponse{Success: false, Message: message})
}
