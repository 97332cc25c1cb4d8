package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
)

// HTTPClient calls the payment endpoints of a running service.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1/payments",
		client:  &http.Client{Timeout: timeout},
	}
}

func (h *HTTPClient) CreateOrder(ctx context.Context, token string, courseIDs []string) (*domain.OrderData, error) {
	var order domain.OrderData
	if err := h.post(ctx, "/capturePayment", token, domain.CheckoutRequest{CourseIDs: courseIDs}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (h *HTTPClient) VerifyPayment(ctx context.Context, token string, req domain.VerifyPaymentRequest) (*domain.EnrollmentResult, error) {
	var result domain.EnrollmentResult
	if err := h.post(ctx, "/verifyPayment", token, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (h *HTTPClient) SendPaymentSuccessEmail(ctx context.Context, token string, req domain.PaymentSuccessEmailRequest) error {
	return h.post(ctx, "/sendPaymentSuccessEmail", token, req, nil)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (h *HTTPClient) post(ctx context.Context, path, token string, body, data any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("unexpected response from %s (status %d): %w", path, resp.StatusCode, err)
	}
	if !env.Success || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			return fmt.Errorf("failed to decode %s data: %w", path, err)
		}
	}
	return nil
}
