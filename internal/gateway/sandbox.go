package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/signature"
)

// Sandbox is an in-process gateway for local runs. It creates orders and
// signs payments with the same algorithm as the real gateway.
type Sandbox struct {
	keySecret string

	mu     sync.Mutex
	orders map[string]*domain.Order
}

func NewSandbox(keySecret string) *Sandbox {
	return &Sandbox{
		keySecret: keySecret,
		orders:    make(map[string]*domain.Order),
	}
}

func (s *Sandbox) CreateOrder(ctx context.Context, req OrderRequest) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, &StatusError{StatusCode: 400, Body: "amount must be at least 100"}
	}

	order := &domain.Order{
		ID:        "order_" + shortID(),
		Amount:    req.Amount,
		Currency:  req.Currency,
		Receipt:   req.Receipt,
		Status:    domain.OrderStatusCreated,
		CreatedAt: time.Now().UTC(),
		Notes:     make(map[string]string, len(req.Notes)),
	}
	for k, v := range req.Notes {
		order.Notes[k] = v
	}

	s.mu.Lock()
	s.orders[order.ID] = order
	s.mu.Unlock()

	return copyOrder(order), nil
}

// Pay simulates a successful widget payment and returns the signed proof.
func (s *Sandbox) Pay(orderID string) (domain.PaymentProof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return domain.PaymentProof{}, fmt.Errorf("sandbox: unknown order %q", orderID)
	}
	order.Status = domain.OrderStatusPaid

	return SignedProof(orderID, "pay_"+shortID(), s.keySecret), nil
}

func (s *Sandbox) FetchOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return nil, &StatusError{StatusCode: 400, Body: "The id provided does not exist"}
	}
	return copyOrder(order), nil
}

func copyOrder(o *domain.Order) *domain.Order {
	copied := *o
	copied.Notes = make(map[string]string, len(o.Notes))
	for k, v := range o.Notes {
		copied.Notes[k] = v
	}
	return &copied
}

func (s *Sandbox) VerifySignature(proof domain.PaymentProof) bool {
	return signature.Verify(proof.OrderID, proof.PaymentID, proof.Signature, s.keySecret)
}

// SignedProof builds the proof the gateway widget would return for a payment.
func SignedProof(orderID, paymentID, keySecret string) domain.PaymentProof {
	return domain.PaymentProof{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: signature.Sign(orderID, paymentID, keySecret),
	}
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}
