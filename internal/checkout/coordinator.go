package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
)

type State string

const (
	StateIdle                    State = "idle"
	StateLoading                 State = "loading"
	StateOrderRequested          State = "order_requested"
	StateWidgetOpen              State = "widget_open"
	StatePaymentCallbackReceived State = "payment_callback_received"
	StateVerifying               State = "verifying"
	StateEnrolled                State = "enrolled"
	StateFailed                  State = "failed"
)

const (
	MsgSDKLoadFailed    = "Failed to load payment SDK"
	MsgPaymentFailed    = "Payment failed"
	MsgCheckoutFailed   = "Could not complete payment"
	MsgVerifyFailed     = "Could not verify payment"
	MsgEnrolled         = "Payment successful! You've been enrolled in the course."
	EnrolledCoursesPath = "/dashboard/enrolled-courses"
)

type Config struct {
	PublicKey     string
	MerchantName  string
	Description   string
	CallTimeout   time.Duration
	WidgetTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MerchantName == "" {
		c.MerchantName = "StudyNotion"
	}
	if c.Description == "" {
		c.Description = "Thank you for purchasing the course"
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 15 * time.Second
	}
	if c.WidgetTimeout <= 0 {
		c.WidgetTimeout = 10 * time.Minute
	}
	return c
}

// Outcome is the terminal result of one checkout attempt.
type Outcome struct {
	State   State
	Message string
	Path    []State
	Order   *domain.OrderData
	Proof   *domain.PaymentProof
	Result  *domain.EnrollmentResult
	Err     error
}

// Coordinator drives one cart through order creation, the payment widget and
// server verification. Attempts are independent; a Coordinator may be reused.
type Coordinator struct {
	api    API
	loader WidgetLoader
	ui     UI
	cfg    Config
	logger *zap.Logger

	mu    sync.Mutex
	state State
	tasks sync.WaitGroup
}

func NewCoordinator(api API, loader WidgetLoader, ui UI, cfg Config, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		api:    api,
		loader: loader,
		ui:     ui,
		cfg:    cfg.withDefaults(),
		logger: logger,
		state:  StateIdle,
	}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Wait blocks until background notification calls have finished.
func (c *Coordinator) Wait() {
	c.tasks.Wait()
}

type widgetResult struct {
	proof   domain.PaymentProof
	failure *WidgetFailure
}

func (c *Coordinator) BuyCourses(ctx context.Context, token string, courseIDs []string, user User) *Outcome {
	out := &Outcome{}
	c.enter(out, StateLoading)

	dismiss := sync.OnceFunc(c.ui.ShowLoading("Loading..."))
	defer dismiss()

	loadCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	widget, err := c.loader.Load(loadCtx)
	cancel()
	if err != nil {
		return c.fail(out, MsgSDKLoadFailed, err)
	}

	c.enter(out, StateOrderRequested)
	orderCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	order, err := c.api.CreateOrder(orderCtx, token, courseIDs)
	cancel()
	if err != nil {
		return c.fail(out, serverMessage(err, MsgCheckoutFailed), err)
	}
	out.Order = order

	results := make(chan widgetResult, 1)
	deliver := func(r widgetResult) {
		select {
		case results <- r:
		default:
		}
	}
	err = widget.Open(WidgetOptions{
		Key:         c.cfg.PublicKey,
		Amount:      order.Amount,
		Currency:    order.Currency,
		OrderID:     order.ID,
		Name:        c.cfg.MerchantName,
		Description: c.cfg.Description,
		Prefill: Prefill{
			Name:  user.FirstName,
			Email: user.Email,
		},
	}, Callbacks{
		OnSuccess: func(proof domain.PaymentProof) { deliver(widgetResult{proof: proof}) },
		OnFailure: func(f WidgetFailure) { deliver(widgetResult{failure: &f}) },
	})
	if err != nil {
		return c.fail(out, MsgCheckoutFailed, err)
	}
	c.enter(out, StateWidgetOpen)
	dismiss()

	var res widgetResult
	timer := time.NewTimer(c.cfg.WidgetTimeout)
	defer timer.Stop()
	select {
	case res = <-results:
	case <-ctx.Done():
		return c.fail(out, MsgPaymentFailed, ctx.Err())
	case <-timer.C:
		return c.fail(out, MsgPaymentFailed, context.DeadlineExceeded)
	}

	if res.failure != nil {
		c.logger.Warn("Payment failed in widget",
			zap.String("order_id", order.ID),
			zap.String("code", res.failure.Code),
			zap.String("description", res.failure.Description))
		return c.fail(out, MsgPaymentFailed, errors.New(res.failure.Description))
	}

	c.enter(out, StatePaymentCallbackReceived)
	out.Proof = &res.proof

	c.tasks.Add(1)
	go c.sendPaymentSuccessEmail(context.WithoutCancel(ctx), token, res.proof, order.Amount)

	return c.verify(ctx, out, token, res.proof, courseIDs)
}

func (c *Coordinator) verify(ctx context.Context, out *Outcome, token string, proof domain.PaymentProof, courseIDs []string) *Outcome {
	c.enter(out, StateVerifying)

	dismiss := c.ui.ShowLoading("Verifying Payment...")
	c.ui.SetPaymentLoading(true)
	defer func() {
		dismiss()
		c.ui.SetPaymentLoading(false)
	}()

	verifyCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	result, err := c.api.VerifyPayment(verifyCtx, token, domain.VerifyPaymentRequest{
		GatewayOrderID:   proof.OrderID,
		GatewayPaymentID: proof.PaymentID,
		Signature:        proof.Signature,
		CourseIDs:        courseIDs,
	})
	if err != nil {
		return c.fail(out, MsgVerifyFailed, err)
	}

	out.Result = result
	out.Message = MsgEnrolled
	c.ui.Success(MsgEnrolled)
	c.ui.Navigate(EnrolledCoursesPath)
	c.ui.ResetCart()
	c.enter(out, StateEnrolled)
	return out
}

// sendPaymentSuccessEmail runs beside verification; its result is only logged.
func (c *Coordinator) sendPaymentSuccessEmail(ctx context.Context, token string, proof domain.PaymentProof, amount int64) {
	defer c.tasks.Done()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	err := c.api.SendPaymentSuccessEmail(ctx, token, domain.PaymentSuccessEmailRequest{
		OrderID:   proof.OrderID,
		PaymentID: proof.PaymentID,
		Amount:    amount,
	})
	if err != nil {
		c.logger.Warn("Payment success email failed",
			zap.String("order_id", proof.OrderID),
			zap.Error(err))
	}
}

func (c *Coordinator) enter(out *Outcome, s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	out.State = s
	out.Path = append(out.Path, s)
}

func (c *Coordinator) fail(out *Outcome, message string, err error) *Outcome {
	c.logger.Error("Checkout failed",
		zap.String("state", string(out.State)),
		zap.String("message", message),
		zap.Error(err))
	out.Message = message
	out.Err = err
	c.ui.Error(message)
	c.enter(out, StateFailed)
	return out
}

func serverMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
