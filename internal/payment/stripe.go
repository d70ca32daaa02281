package payment

import (
	"context"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

// StripeGateway opens a PaymentIntent per order. Callbacks are verified by
// reading the intent back from Stripe rather than trusting the posted signature.
type StripeGateway struct{}

// NewStripeGateway sets the package-level Stripe key.
func NewStripeGateway(apiKey string) *StripeGateway {
	stripe.Key = apiKey
	return &StripeGateway{}
}

func (s *StripeGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (Order, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(strings.ToLower(currency)),
	}
	params.Context = ctx
	if receipt != "" {
		params.AddMetadata("receipt", receipt)
	}
	pi, err := paymentintent.New(params)
	if err != nil {
		return Order{}, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return Order{
		ID:           pi.ID,
		AmountMinor:  pi.Amount,
		Currency:     string(pi.Currency),
		ClientSecret: pi.ClientSecret,
	}, nil
}

func (s *StripeGateway) Verify(ctx context.Context, cb Callback) error {
	if cb.OrderID == "" {
		return fmt.Errorf("%w: missing order id", ErrVerificationFailed)
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(cb.OrderID, params)
	if err != nil {
		return fmt.Errorf("failed to fetch payment intent: %w", err)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return fmt.Errorf("%w: intent %s is %s", ErrVerificationFailed, pi.ID, pi.Status)
	}
	return nil
}
