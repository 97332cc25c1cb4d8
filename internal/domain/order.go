package domain

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusCreated   OrderStatus = "created"
	OrderStatusAttempted OrderStatus = "attempted"
	OrderStatusPaid      OrderStatus = "paid"
)

// Order is the gateway-side handle for an amount to collect. Amount is in
// minor currency units.
type Order struct {
	ID        string      `json:"id"`
	Amount    int64       `json:"amount"`
	Currency  string      `json:"currency"`
	Receipt   string      `json:"receipt,omitempty"`
	Status    OrderStatus `json:"status,omitempty"`
	CreatedAt time.Time   `json:"created_at,omitempty"`

	// Notes are the merchant notes stored on the gateway order. Not sent to
	// the client.
	Notes map[string]string `json:"-"`
}

// PaymentProof is what the gateway widget hands back after a payment.
type PaymentProof struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

type CheckoutRequest struct {
	CourseIDs []string `json:"courseIds"`
}

type OrderData struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type VerifyPaymentRequest struct {
	GatewayOrderID   string   `json:"gatewayOrderId"`
	GatewayPaymentID string   `json:"gatewayPaymentId"`
	Signature        string   `json:"signature"`
	CourseIDs        []string `json:"courseIds"`
}

func (r VerifyPaymentRequest) Proof() PaymentProof {
	return PaymentProof{
		OrderID:   r.GatewayOrderID,
		PaymentID: r.GatewayPaymentID,
		Signature: r.Signature,
	}
}

type PaymentSuccessEmailRequest struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Amount    int64  `json:"amount"`
}

// APIResponse is the envelope every payment endpoint answers with.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}
