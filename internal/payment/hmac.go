package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// HMACGateway issues local order ids and checks callbacks signed as
// hex(HMAC-SHA256(secret, orderID + "|" + paymentID)).
type HMACGateway struct {
	keyID  string
	secret []byte
}

func NewHMACGateway(keyID, secret string) *HMACGateway {
	return &HMACGateway{keyID: keyID, secret: []byte(secret)}
}

func (g *HMACGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (Order, error) {
	if amountMinor <= 0 {
		return Order{}, fmt.Errorf("amount must be positive, got %d", amountMinor)
	}
	return Order{
		ID:          "order_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		AmountMinor: amountMinor,
		Currency:    currency,
		KeyID:       g.keyID,
	}, nil
}

func (g *HMACGateway) Verify(ctx context.Context, cb Callback) error {
	if cb.OrderID == "" || cb.PaymentID == "" || cb.Signature == "" {
		return fmt.Errorf("%w: missing order, payment or signature", ErrVerificationFailed)
	}
	expected := g.Sign(cb.OrderID, cb.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(cb.Signature))) {
		return fmt.Errorf("%w: signature mismatch", ErrVerificationFailed)
	}
	return nil
}

// Sign returns the signature a genuine callback for orderID/paymentID carries.
func (g *HMACGateway) Sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
