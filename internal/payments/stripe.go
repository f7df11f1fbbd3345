// Package payments charges hosts when they move an event to a paid pricing tier.
package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orma/internal/middleware"
	"orma/internal/models"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// Currency is charged for every tier.
const Currency = "usd"

// StatusSucceeded is the receipt status of a settled charge.
const StatusSucceeded = "succeeded"

// Charge is a one-off payment for an event.
type Charge struct {
	AmountCents   int64
	PaymentMethod string
	Description   string
	EventHash     string
}

// Receipt identifies a charge at the provider.
type Receipt struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Paid reports whether the charge settled.
func (r *Receipt) Paid() bool {
	return r != nil && r.Status == StatusSucceeded
}

// Provider confirms a charge in a single call.
type Provider interface {
	Charge(ctx context.Context, in Charge) (*Receipt, error)
}

// intentAPI is the slice of the Stripe client we use.
type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeProvider creates and confirms PaymentIntents.
type StripeProvider struct {
	intents intentAPI
	timeout time.Duration
}

// NewStripeProvider builds a provider for secretKey. A nil backend uses the
// public Stripe API.
func NewStripeProvider(secretKey string, backend stripe.Backend, timeout time.Duration) (*StripeProvider, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("payments: stripe secret key is required")
	}
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &StripeProvider{
		intents: paymentintent.Client{B: backend, Key: secretKey},
		timeout: timeout,
	}, nil
}

// Charge confirms the payment method for the amount without redirects. Card
// declines surface as PAYMENT_FAILED.
func (p *StripeProvider) Charge(ctx context.Context, in Charge) (*Receipt, error) {
	if in.AmountCents <= 0 {
		return nil, models.NewValidationError("amount must be positive")
	}
	if in.PaymentMethod == "" {
		return nil, models.NewValidationError("payment_method is required")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(in.AmountCents),
		Currency:      stripe.String(Currency),
		Description:   stripe.String(in.Description),
		PaymentMethod: stripe.String(in.PaymentMethod),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.AddMetadata("event_hash", in.EventHash)

	intent, err := p.intents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return nil, models.NewPaymentFailedError(stripeErr.Msg)
		}
		if ctx.Err() != nil {
			return nil, models.WrapDependency("payments", ctx.Err())
		}
		return nil, models.WrapDependency("payments", fmt.Errorf("stripe create payment intent: %w", err))
	}
	return &Receipt{ID: intent.ID, Status: string(intent.Status)}, nil
}

// LogProvider replaces Stripe outside production when no key is set. Every
// charge succeeds.
type LogProvider struct{}

// Charge logs the amount and returns a settled receipt.
func (LogProvider) Charge(ctx context.Context, in Charge) (*Receipt, error) {
	middleware.Logger.InfoContext(ctx, "payment accepted without a provider",
		"event_hash", in.EventHash, "amount_cents", in.AmountCents)
	return &Receipt{ID: "dev_" + uuid.NewString(), Status: StatusSucceeded}, nil
}
