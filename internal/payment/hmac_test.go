package payment

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestHMACGatewayCreateOrder(t *testing.T) {
	g := NewHMACGateway("key_test", "s3cret")

	order, err := g.CreateOrder(context.Background(), 50000, "INR", "bill-1")
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if !strings.HasPrefix(order.ID, "order_") {
		t.Errorf("order id %q lacks prefix", order.ID)
	}
	if order.AmountMinor != 50000 || order.Currency != "INR" || order.KeyID != "key_test" {
		t.Errorf("unexpected order %+v", order)
	}

	other, _ := g.CreateOrder(context.Background(), 50000, "INR", "bill-1")
	if other.ID == order.ID {
		t.Error("order ids must be unique")
	}

	if _, err := g.CreateOrder(context.Background(), 0, "INR", ""); err == nil {
		t.Error("expected error for zero amount")
	}
}

func TestHMACGatewayVerify(t *testing.T) {
	g := NewHMACGateway("key_test", "s3cret")
	sig := g.Sign("order_1", "pay_1")

	cases := []struct {
		name string
		cb   Callback
		ok   bool
	}{
		{"valid", Callback{"order_1", "pay_1", sig}, true},
		{"uppercase signature", Callback{"order_1", "pay_1", strings.ToUpper(sig)}, true},
		{"tampered payment", Callback{"order_1", "pay_2", sig}, false},
		{"tampered order", Callback{"order_2", "pay_1", sig}, false},
		{"missing signature", Callback{"order_1", "pay_1", ""}, false},
		{"other secret", Callback{"order_1", "pay_1", NewHMACGateway("", "x").Sign("order_1", "pay_1")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := g.Verify(context.Background(), tc.cb)
			if tc.ok && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrVerificationFailed) {
				t.Fatalf("expected ErrVerificationFailed, got %v", err)
			}
		})
	}
}
