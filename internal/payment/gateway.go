// Package payment talks to the hosted checkout that settles bills.
package payment

import (
	"context"
	"errors"
)

// ErrVerificationFailed is returned when a callback cannot be proven authentic or settled.
var ErrVerificationFailed = errors.New("payment verification failed")

// Order is a checkout order opened with the gateway.
type Order struct {
	ID           string `json:"order_id"`
	AmountMinor  int64  `json:"amount"`
	Currency     string `json:"currency"`
	KeyID        string `json:"key_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// Callback is the order/payment/signature triple a gateway posts back after checkout.
type Callback struct {
	OrderID   string
	PaymentID string
	Signature string
}

// Gateway creates orders and authenticates their callbacks.
// Verify must succeed before a payment is marked settled.
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (Order, error)
	Verify(ctx context.Context, cb Callback) error
}
