package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"go.uber.org/zap"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/signature"
)

// OrderRequest is the subset of the gateway order API the platform uses.
type OrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type Config struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	Timeout       time.Duration
	RetryAttempts uint
	RetryDelay    time.Duration
}

// StatusError is a non-2xx answer from the gateway API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Body)
}

// Razorpay talks to a Razorpay-compatible orders API. One instance is built
// at startup and shared by the checkout and verify flows.
type Razorpay struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

func NewRazorpay(cfg Config, logger *zap.Logger) *Razorpay {
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 1
	}
	return &Razorpay{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type orderResponse struct {
	ID        string          `json:"id"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	Receipt   string          `json:"receipt"`
	Status    string          `json:"status"`
	CreatedAt int64           `json:"created_at"`
	Notes     json.RawMessage `json:"notes"`
}

// CreateOrder opens a gateway order. The POST is not idempotent, so it is
// only retried when the gateway cannot have created the order.
func (c *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (*domain.Order, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}
	return c.withRetry(ctx, "create", req.Receipt, isSafeToResend, func() (*domain.Order, error) {
		return c.call(ctx, http.MethodPost, "/v1/orders", body)
	})
}

// FetchOrder loads an existing order, including its notes.
func (c *Razorpay) FetchOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, errors.New("order id is required")
	}
	return c.withRetry(ctx, "fetch", orderID, isRetryable, func() (*domain.Order, error) {
		return c.call(ctx, http.MethodGet, "/v1/orders/"+url.PathEscape(orderID), nil)
	})
}

func (c *Razorpay) withRetry(ctx context.Context, op, ref string, retryIf retry.RetryIfFunc, fn func() (*domain.Order, error)) (*domain.Order, error) {
	var order *domain.Order
	err := retry.Do(
		func() error {
			o, err := fn()
			if err != nil {
				return err
			}
			order = o
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.RetryAttempts),
		retry.Delay(c.cfg.RetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryIf),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("Retrying gateway call",
				zap.String("op", op),
				zap.Uint("attempt", n+1),
				zap.String("ref", ref),
				zap.Error(err))
		}),
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (c *Razorpay) call(ctx context.Context, method, path string, body []byte) (*domain.Order, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var out orderResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to decode gateway order: %w", err))
	}
	if out.ID == "" {
		return nil, retry.Unrecoverable(errors.New("gateway order has no id"))
	}

	return &domain.Order{
		ID:        out.ID,
		Amount:    out.Amount,
		Currency:  out.Currency,
		Receipt:   out.Receipt,
		Status:    domain.OrderStatus(out.Status),
		CreatedAt: time.Unix(out.CreatedAt, 0).UTC(),
		Notes:     decodeNotes(out.Notes),
	}, nil
}

// decodeNotes accepts the notes object. The API sends an empty array when an
// order has no notes.
func decodeNotes(raw json.RawMessage) map[string]string {
	notes := map[string]string{}
	if len(raw) == 0 || raw[0] != '{' {
		return notes
	}
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return notes
	}
	for k, v := range values {
		if str, ok := v.(string); ok {
			notes[k] = str
		} else {
			notes[k] = fmt.Sprint(v)
		}
	}
	return notes
}

// VerifySignature checks a payment proof against the merchant key secret.
func (c *Razorpay) VerifySignature(proof domain.PaymentProof) bool {
	return signature.Verify(proof.OrderID, proof.PaymentID, proof.Signature, c.cfg.KeySecret)
}

// isSafeToResend retries a non-idempotent call only when the request never
// reached the gateway application: the connection could not be dialed, or a
// throttling or proxy status came back.
func isSafeToResend(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable:
			return true
		}
		return false
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// isRetryable retries transport failures, throttling and 5xx answers.
func isRetryable(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}
