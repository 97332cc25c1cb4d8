package checkout

import (
	"context"
	"fmt"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
)

// API is the client view of the payment endpoints. Every call carries the
// caller's bearer token.
type API interface {
	CreateOrder(ctx context.Context, token string, courseIDs []string) (*domain.OrderData, error)
	VerifyPayment(ctx context.Context, token string, req domain.VerifyPaymentRequest) (*domain.EnrollmentResult, error)
	SendPaymentSuccessEmail(ctx context.Context, token string, req domain.PaymentSuccessEmailRequest) error
}

// APIError is a {success:false} answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

type Prefill struct {
	Name  string
	Email string
}

type WidgetOptions struct {
	Key         string
	Amount      int64
	Currency    string
	OrderID     string
	Name        string
	Description string
	Prefill     Prefill
}

type WidgetFailure struct {
	Code        string
	Description string
}

type Callbacks struct {
	OnSuccess func(proof domain.PaymentProof)
	OnFailure func(failure WidgetFailure)
}

// Widget is an opened payment form. Open must not block on the payment
// itself; the outcome arrives through exactly one callback.
type Widget interface {
	Open(opts WidgetOptions, cb Callbacks) error
}

// WidgetLoader fetches the gateway widget. A failed load is terminal.
type WidgetLoader interface {
	Load(ctx context.Context) (Widget, error)
}

type UI interface {
	// ShowLoading displays a progress notice and returns its dismiss func.
	ShowLoading(message string) (dismiss func())
	SetPaymentLoading(loading bool)
	Success(message string)
	Error(message string)
	ResetCart()
	Navigate(path string)
}

type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
}
