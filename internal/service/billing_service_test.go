package service

import (
	"context"
	"testing"

	"bintobloom/internal/events"
	"bintobloom/internal/model"

	"github.com/google/uuid"
)

type billedPickup struct {
	pickupID  string
	paymentID string
	business  Actor
	collector Actor
}

func (f *fixture) bill(t *testing.T, wasteType, amount, kg string) billedPickup {
	t.Helper()
	business := f.register(t, model.RoleBusiness, "Mumbai")
	collector := f.register(t, model.RoleCollector, "Mumbai")
	p := f.schedule(t, business, wasteType)
	f.assign(t, p.ID, collector)

	res, err := f.svc.Billing.GenerateBill(context.Background(), collector, p.ID, GenerateBillRequest{Amount: amount, WeightKg: kg})
	if err != nil {
		t.Fatalf("generate bill: %v", err)
	}
	if res.Status != string(model.PickupPaymentPending) || res.Payment.Status != model.PaymentPending {
		t.Fatalf("bill = %+v", res)
	}
	return billedPickup{pickupID: p.ID, paymentID: res.Payment.ID, business: business, collector: collector}
}

func TestVerifySettlesBillOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.bill(t, "RECYCLABLE_WASTE", "150", "10")

	order, err := f.svc.Billing.PayBill(ctx, b.business, PayBillRequest{PaymentID: b.paymentID})
	if err != nil {
		t.Fatalf("pay bill: %v", err)
	}
	if order.Order.AmountMinor != 15000 {
		t.Fatalf("amount minor = %d, want 15000", order.Order.AmountMinor)
	}

	req := VerifyPaymentRequest{
		OrderID:   order.Order.ID,
		PaymentID: "pay_1",
		Signature: f.gateway.Sign(order.Order.ID, "pay_1"),
	}
	res, err := f.svc.Billing.Verify(ctx, req)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Status != model.PaymentCompleted || res.PickupStatus != string(model.PickupCompleted) || res.PointsEarned != 15 {
		t.Fatalf("verify = %+v", res)
	}

	again, err := f.svc.Billing.Verify(ctx, req)
	if err != nil {
		t.Fatalf("second verify: %v", err)
	}
	if !again.AlreadyVerified || again.PointsEarned != 0 {
		t.Fatalf("second verify = %+v, want already verified", again)
	}

	pickupID := uuid.MustParse(b.pickupID)
	n, err := f.repos.Rewards.CountByPickup(ctx, pickupID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("rewards = %d, want 1", n)
	}
	detail, err := f.repos.Businesses.FindByUserID(ctx, b.business.ID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.SustainabilityScore != 5 {
		t.Fatalf("score = %d, want 5", detail.SustainabilityScore)
	}
	if f.events.count(events.PaymentVerified) != 1 {
		t.Fatalf("verified events = %d, want 1", f.events.count(events.PaymentVerified))
	}

	history, err := f.svc.Billing.History(ctx, b.business)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Status != model.PaymentCompleted {
		t.Fatalf("history = %+v", history)
	}
}

func TestVerifyRejectsBadSignatureWithoutChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.bill(t, "FOOD", "99.50", "4")

	order, err := f.svc.Billing.PayBill(ctx, b.business, PayBillRequest{PickupID: b.pickupID})
	if err != nil {
		t.Fatalf("pay bill: %v", err)
	}

	_, err = f.svc.Billing.Verify(ctx, VerifyPaymentRequest{
		OrderID:   order.Order.ID,
		PaymentID: "pay_1",
		Signature: f.gateway.Sign(order.Order.ID, "pay_2"),
	})
	wantKind(t, err, KindValidation)

	p, err := f.repos.Payments.FindByID(ctx, uuid.MustParse(b.paymentID))
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != model.PaymentPending || p.GatewayPaymentID != "" {
		t.Fatalf("payment changed: %+v", p)
	}
	pickup, err := f.repos.Pickups.FindByID(ctx, uuid.MustParse(b.pickupID))
	if err != nil {
		t.Fatal(err)
	}
	if pickup.Status != model.PickupPaymentPending {
		t.Fatalf("pickup status = %s, want PAYMENT_PENDING", pickup.Status)
	}
}

func TestGenerateBillRefusesPaidBill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.bill(t, "FOOD", "50", "2")

	// Settled outside the gateway.
	p, err := f.repos.Payments.FindByID(ctx, uuid.MustParse(b.paymentID))
	if err != nil {
		t.Fatal(err)
	}
	p.Status = model.PaymentSuccess
	if err := f.repos.Payments.Update(ctx, p); err != nil {
		t.Fatal(err)
	}

	_, err = f.svc.Billing.GenerateBill(ctx, b.collector, b.pickupID, GenerateBillRequest{Amount: "75", WeightKg: "3"})
	wantKind(t, err, KindState)

	after, err := f.repos.Payments.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Amount.StringFixed(2) != "50.00" || after.Status != model.PaymentSuccess {
		t.Fatalf("payment mutated: %s %s", after.Amount, after.Status)
	}
	w, err := f.repos.WasteLogs.FindLatestByPickup(ctx, uuid.MustParse(b.pickupID))
	if err != nil {
		t.Fatal(err)
	}
	if w.WeightKg.StringFixed(1) != "2.0" {
		t.Fatalf("waste log mutated: %s", w.WeightKg)
	}

	_, err = f.svc.Billing.PayBill(ctx, b.business, PayBillRequest{PaymentID: b.paymentID})
	wantKind(t, err, KindState)
}

func TestGenerateBillRebillsPendingPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.bill(t, "FOOD", "50", "2")

	res, err := f.svc.Billing.GenerateBill(ctx, b.collector, b.pickupID, GenerateBillRequest{Amount: "80", WeightKg: "3"})
	if err != nil {
		t.Fatalf("rebill: %v", err)
	}
	if res.Payment.ID != b.paymentID || res.Payment.Amount != "80.00" {
		t.Fatalf("rebill = %+v, want same payment at 80.00", res.Payment)
	}
}

func TestGenerateBillDropsStaleGatewayOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.bill(t, "FOOD", "50", "2")

	stale, err := f.svc.Billing.PayBill(ctx, b.business, PayBillRequest{PaymentID: b.paymentID})
	if err != nil {
		t.Fatalf("pay bill: %v", err)
	}
	if _, err := f.svc.Billing.GenerateBill(ctx, b.collector, b.pickupID, GenerateBillRequest{Amount: "80", WeightKg: "3"}); err != nil {
		t.Fatalf("rebill: %v", err)
	}

	_, err = f.svc.Billing.Verify(ctx, VerifyPaymentRequest{
		OrderID:   stale.Order.ID,
		PaymentID: "pay_old",
		Signature: f.gateway.Sign(stale.Order.ID, "pay_old"),
	})
	wantKind(t, err, KindNotFound)

	p, err := f.repos.Payments.FindByID(ctx, uuid.MustParse(b.paymentID))
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != model.PaymentPending || p.GatewayOrderID != "" || p.Amount.StringFixed(2) != "80.00" {
		t.Fatalf("payment = %s order=%q amount=%s, want PENDING without order at 80.00", p.Status, p.GatewayOrderID, p.Amount)
	}

	fresh, err := f.svc.Billing.PayBill(ctx, b.business, PayBillRequest{PaymentID: b.paymentID})
	if err != nil {
		t.Fatalf("pay rebilled: %v", err)
	}
	if fresh.Order.ID == stale.Order.ID || fresh.Order.AmountMinor != 8000 {
		t.Fatalf("order = %+v, want a new order for 8000", fresh.Order)
	}
}

func TestGenerateBillValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	household := f.register(t, model.RoleHousehold, "Pune")
	collector := f.register(t, model.RoleCollector, "Pune")
	p := f.schedule(t, household, "FOOD")
	f.assign(t, p.ID, collector)

	_, err := f.svc.Billing.GenerateBill(ctx, collector, p.ID, GenerateBillRequest{Amount: "10", WeightKg: "1"})
	wantKind(t, err, KindValidation)

	for _, req := range []GenerateBillRequest{
		{Amount: "0", WeightKg: "1"},
		{Amount: "1000000", WeightKg: "1"},
		{Amount: "10", WeightKg: "0.05"},
		{Amount: "ten", WeightKg: "1"},
	} {
		_, err := f.svc.Billing.GenerateBill(ctx, collector, p.ID, req)
		wantKind(t, err, KindValidation)
	}
}

func TestPayBillRequiresOwner(t *testing.T) {
	f := newFixture(t)
	b := f.bill(t, "FOOD", "50", "2")
	other := f.register(t, model.RoleBusiness, "Mumbai")

	_, err := f.svc.Billing.PayBill(context.Background(), other, PayBillRequest{PaymentID: b.paymentID})
	wantKind(t, err, KindForbidden)
}

func TestCompleteRefusedWhileAwaitingPayment(t *testing.T) {
	f := newFixture(t)
	b := f.bill(t, "FOOD", "50", "2")

	_, err := f.svc.Pickups.Complete(context.Background(), b.collector, b.pickupID, CompletePickupRequest{WeightKg: "2"})
	wantKind(t, err, KindState)
}

func TestCreateOrderOpensPendingPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	household := f.register(t, model.RoleHousehold, "Pune")

	order, err := f.svc.Billing.CreateOrder(ctx, household, CreateOrderRequest{Amount: "12.34"})
	if err != nil {
		t.Fatal(err)
	}
	if order.Order.AmountMinor != 1234 {
		t.Fatalf("amount minor = %d, want 1234", order.Order.AmountMinor)
	}
	p, err := f.repos.Payments.FindByGatewayOrderID(ctx, order.Order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != model.PaymentPending || p.PickupID != nil {
		t.Fatalf("payment = %+v", p)
	}

	res, err := f.svc.Billing.Verify(ctx, VerifyPaymentRequest{
		OrderID:   order.Order.ID,
		PaymentID: "pay_9",
		Signature: f.gateway.Sign(order.Order.ID, "pay_9"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != model.PaymentCompleted || res.PickupID != "" {
		t.Fatalf("verify = %+v", res)
	}
}
