package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/checkout"
	"github.com/cloud-wave-best-zizon/enrollment-service/pkg/middleware"
)

type buyOptions struct {
	server        string
	token         string
	jwtSecret     string
	userID        string
	email         string
	firstName     string
	lastName      string
	courses       []string
	publicKey     string
	widgetSecret  string
	decline       bool
	callTimeout   time.Duration
	widgetTimeout time.Duration
	verbose       bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "checkout-cli",
		Short:        "Drive a course checkout against a running enrollment service",
		SilenceUsage: true,
	}
	root.AddCommand(newBuyCmd())
	return root
}

func newBuyCmd() *cobra.Command {
	opts := &buyOptions{}
	cmd := &cobra.Command{
		Use:   "buy",
		Short: "Buy courses using the sandbox payment widget",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuy(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.server, "server", "http://localhost:8080", "enrollment service base URL")
	f.StringVar(&opts.token, "token", "", "bearer token of the buyer")
	f.StringVar(&opts.jwtSecret, "jwt-secret", os.Getenv("JWT_SECRET"), "mint a token with this secret when --token is empty")
	f.StringVar(&opts.userID, "user-id", "", "buyer user id")
	f.StringVar(&opts.email, "email", "", "buyer email for the payment form")
	f.StringVar(&opts.firstName, "first-name", "", "buyer first name for the payment form")
	f.StringVar(&opts.lastName, "last-name", "", "buyer last name")
	f.StringSliceVar(&opts.courses, "courses", nil, "course ids to buy")
	f.StringVar(&opts.publicKey, "public-key", os.Getenv("RAZORPAY_KEY"), "gateway public key")
	f.StringVar(&opts.widgetSecret, "widget-secret", os.Getenv("RAZORPAY_SECRET"), "key secret the sandbox widget signs with")
	f.BoolVar(&opts.decline, "decline", false, "make the sandbox widget decline the payment")
	f.DurationVar(&opts.callTimeout, "call-timeout", 15*time.Second, "timeout for each server call")
	f.DurationVar(&opts.widgetTimeout, "widget-timeout", time.Minute, "how long to wait for the payment form")
	f.BoolVar(&opts.verbose, "verbose", false, "log coordinator internals")
	_ = cmd.MarkFlagRequired("courses")

	return cmd
}

func runBuy(cmd *cobra.Command, opts *buyOptions) error {
	token := opts.token
	if token == "" {
		if opts.jwtSecret == "" || opts.userID == "" {
			return errors.New("either --token or both --jwt-secret and --user-id are required")
		}
		var err error
		token, err = middleware.IssueToken([]byte(opts.jwtSecret), opts.userID, opts.email, time.Hour)
		if err != nil {
			return fmt.Errorf("failed to mint token: %w", err)
		}
	}

	logger := zap.NewNop()
	if opts.verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer logger.Sync()
	}

	coordinator := checkout.NewCoordinator(
		checkout.NewHTTPClient(opts.server, opts.callTimeout),
		checkout.SandboxLoader{KeySecret: opts.widgetSecret, Decline: opts.decline},
		checkout.NewTerminalUI(cmd.OutOrStdout()),
		checkout.Config{
			PublicKey:     opts.publicKey,
			CallTimeout:   opts.callTimeout,
			WidgetTimeout: opts.widgetTimeout,
		},
		logger,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	outcome := coordinator.BuyCourses(ctx, token, opts.courses, checkout.User{
		ID:        opts.userID,
		FirstName: opts.firstName,
		LastName:  opts.lastName,
		Email:     opts.email,
	})
	coordinator.Wait()

	if outcome.Order != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "order %s: %d %s\n", outcome.Order.ID, outcome.Order.Amount, outcome.Order.Currency)
	}
	if outcome.State != checkout.StateEnrolled {
		return fmt.Errorf("checkout %s: %s", outcome.State, outcome.Message)
	}
	return nil
}
