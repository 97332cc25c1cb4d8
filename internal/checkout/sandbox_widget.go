package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/gateway"
)

// SandboxLoader hands out widgets that settle payments locally by signing
// the proof with the gateway key secret the server is configured with.
type SandboxLoader struct {
	KeySecret   string
	Unavailable bool
	Decline     bool
}

func (l SandboxLoader) Load(ctx context.Context) (Widget, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.Unavailable {
		return nil, errors.New("sandbox widget unavailable")
	}
	return &sandboxWidget{keySecret: l.KeySecret, decline: l.Decline}, nil
}

type sandboxWidget struct {
	keySecret string
	decline   bool
}

func (w *sandboxWidget) Open(opts WidgetOptions, cb Callbacks) error {
	if opts.OrderID == "" {
		return errors.New("widget opened without an order id")
	}
	go func() {
		if w.decline {
			cb.OnFailure(WidgetFailure{Code: "BAD_REQUEST_ERROR", Description: "Payment declined by sandbox"})
			return
		}
		paymentID := "pay_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
		cb.OnSuccess(gateway.SignedProof(opts.OrderID, paymentID, w.keySecret))
	}()
	return nil
}
