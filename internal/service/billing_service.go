package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bintobloom/internal/events"
	"bintobloom/internal/lock"
	"bintobloom/internal/metrics"
	"bintobloom/internal/model"
	"bintobloom/internal/payment"
	"bintobloom/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VerifyLockTTL is the default bound on how long one callback may hold the per-order verification lock.
const VerifyLockTTL = 30 * time.Second

var (
	minBillAmount = decimal.RequireFromString("0.01")
	maxBillAmount = decimal.RequireFromString("999999.99")
	minBillKg     = decimal.RequireFromString("0.1")
	maxBillKg     = decimal.NewFromInt(10000)
	minorPerMajor = decimal.NewFromInt(100)
)

// --- DTOs ---

type GenerateBillRequest struct {
	Amount   string `json:"amount" binding:"required"`
	WeightKg string `json:"weight_kg" binding:"required"`
	Notes    string `json:"notes" binding:"max=500"`
}

type CreateOrderRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// PayBillRequest identifies the bill by payment id, or by the pickup it was raised for.
type PayBillRequest struct {
	PaymentID string `json:"payment_id"`
	PickupID  string `json:"pickup_id"`
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature"`
}

type PaymentResponse struct {
	ID             string  `json:"id"`
	UserID         *string `json:"user_id"`
	BusinessID     *string `json:"business_id"`
	PickupID       *string `json:"pickup_id"`
	Amount         string  `json:"amount"`
	Mode           string  `json:"mode"`
	Status         string  `json:"status"`
	GatewayOrderID string  `json:"gateway_order_id,omitempty"`
	PaymentDate    string  `json:"payment_date"`
}

type BillResponse struct {
	Payment  PaymentResponse `json:"payment"`
	PickupID string          `json:"pickup_id"`
	Status   string          `json:"pickup_status"`
	WeightKg string          `json:"weight_kg"`
}

type OrderResponse struct {
	PaymentID string        `json:"payment_id"`
	Order     payment.Order `json:"order"`
}

type VerifyResponse struct {
	PaymentID       string `json:"payment_id"`
	Status          string `json:"status"`
	PickupID        string `json:"pickup_id,omitempty"`
	PickupStatus    string `json:"pickup_status,omitempty"`
	PointsEarned    int    `json:"points_earned"`
	AlreadyVerified bool   `json:"already_verified"`
}

// --- Interface ---

// BillingService bills business pickups and settles them through the payment gateway.
type BillingService interface {
	GenerateBill(ctx context.Context, actor Actor, pickupID string, req GenerateBillRequest) (BillResponse, error)
	CreateOrder(ctx context.Context, actor Actor, req CreateOrderRequest) (OrderResponse, error)
	PayBill(ctx context.Context, actor Actor, req PayBillRequest) (OrderResponse, error)
	Verify(ctx context.Context, req VerifyPaymentRequest) (VerifyResponse, error)
	History(ctx context.Context, actor Actor) ([]PaymentResponse, error)
}

type billingService struct {
	repos     *repository.Repositories
	completer *completer
	gateway   payment.Gateway
	locker    lock.Locker
	lockTTL   time.Duration
	publisher events.Publisher
	currency  string
	clock     Clock
	log       *slog.Logger
}

// GenerateBill records the collected weight and raises a PENDING payment for a business
// pickup. A bill that was already paid is never touched.
func (s *billingService) GenerateBill(ctx context.Context, actor Actor, pickupID string, req GenerateBillRequest) (BillResponse, error) {
	id, err := parseID(pickupID, "pickup")
	if err != nil {
		return BillResponse{}, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return BillResponse{}, err
	}
	weight, err := parseWeight(req.WeightKg, minBillKg, maxBillKg)
	if err != nil {
		return BillResponse{}, err
	}

	var bill *model.Payment
	var pickup *model.PickupRequest
	err = s.repos.Transaction.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		pickup, err = s.repos.Pickups.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return lookup(err, "pickup")
		}
		if err := s.requireAssignedCollector(txCtx, actor, pickup); err != nil {
			return err
		}
		if pickup.User.Role != model.RoleBusiness {
			return validationErrorf("bills can only be generated for business pickups")
		}
		if pickup.Status != model.PickupAssigned && pickup.Status != model.PickupPaymentPending {
			return stateErrorf("cannot bill a pickup in status %s", pickup.Status)
		}

		existing, err := s.repos.Payments.FindLatestByPickup(txCtx, pickup.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load payment: %w", err)
		}
		if existing != nil && existing.IsSettled() {
			return stateErrorf("pickup has already been paid")
		}

		if err := s.upsertWasteLog(txCtx, pickup, weight, req.Notes); err != nil {
			return err
		}

		business, err := s.completer.business(txCtx, pickup.UserID)
		if err != nil {
			return err
		}

		bill = existing
		if bill == nil {
			pid := pickup.ID
			bill = &model.Payment{PickupID: &pid, Mode: model.PaymentModeOnline}
		} else {
			// An order opened for the old amount must not settle the new one.
			bill.GatewayOrderID = ""
			bill.GatewayPaymentID = ""
			bill.GatewaySignature = ""
		}
		requester := pickup.UserID
		bill.UserID = &requester
		bill.BusinessID = &business.ID
		bill.Amount = amount
		bill.Status = model.PaymentPending
		bill.PaymentDate = s.clock.Now().UTC()
		if existing == nil {
			err = s.repos.Payments.Create(txCtx, bill)
		} else {
			err = s.repos.Payments.Update(txCtx, bill)
		}
		if err != nil {
			return fmt.Errorf("failed to save bill: %w", err)
		}

		pickup.Status = model.PickupPaymentPending
		if err := s.repos.Pickups.Update(txCtx, pickup); err != nil {
			return fmt.Errorf("failed to update pickup: %w", err)
		}
		return writeAudit(txCtx, s.repos.Audit, &actor.ID, model.ActionGenerateBill, pickup.ID.String(), pickup.WasteType, map[string]any{
			"payment_id": bill.ID.String(),
			"amount":     amount.StringFixed(2),
			"weight_kg":  weight.String(),
		})
	})
	if err != nil {
		return BillResponse{}, err
	}

	metrics.BillsGenerated.Inc()
	e := pickupEvent(events.BillGenerated, pickup)
	e.PaymentID = bill.ID.String()
	e.Amount = bill.Amount.StringFixed(2)
	s.publish(ctx, e)

	return BillResponse{
		Payment:  toPaymentResponse(bill),
		PickupID: pickup.ID.String(),
		Status:   string(pickup.Status),
		WeightKg: weight.StringFixed(2),
	}, nil
}

func (s *billingService) upsertWasteLog(ctx context.Context, pickup *model.PickupRequest, weight decimal.Decimal, notes string) error {
	wasteLog, err := s.repos.WasteLogs.FindLatestByPickup(ctx, pickup.ID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		wasteLog = &model.WasteLog{PickupID: pickup.ID}
	case err != nil:
		return fmt.Errorf("failed to load waste log: %w", err)
	}

	wasteLog.WasteType = pickup.WasteType
	wasteLog.WeightKg = weight
	wasteLog.CollectedAt = s.clock.Now().UTC()
	wasteLog.Notes = strings.TrimSpace(notes)
	if wasteLog.ID == uuid.Nil {
		err = s.repos.WasteLogs.Create(ctx, wasteLog)
	} else {
		err = s.repos.WasteLogs.Update(ctx, wasteLog)
	}
	if err != nil {
		return fmt.Errorf("failed to record waste log: %w", err)
	}
	return nil
}

// CreateOrder opens a free-standing checkout for amount (major units).
func (s *billingService) CreateOrder(ctx context.Context, actor Actor, req CreateOrderRequest) (OrderResponse, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return OrderResponse{}, err
	}

	p := &model.Payment{
		ID:          uuid.New(),
		Amount:      amount,
		Mode:        model.PaymentModeOnline,
		Status:      model.PaymentPending,
		PaymentDate: s.clock.Now().UTC(),
	}
	userID := actor.ID
	p.UserID = &userID

	order, err := s.gateway.CreateOrder(ctx, toMinor(amount), s.currency, p.ID.String())
	if err != nil {
		return OrderResponse{}, fmt.Errorf("failed to create gateway order: %w", err)
	}
	p.GatewayOrderID = order.ID
	if err := s.repos.Payments.Create(ctx, p); err != nil {
		return OrderResponse{}, fmt.Errorf("failed to save payment: %w", err)
	}
	return OrderResponse{PaymentID: p.ID.String(), Order: order}, nil
}

// PayBill opens a gateway order for an outstanding bill owned by the caller.
func (s *billingService) PayBill(ctx context.Context, actor Actor, req PayBillRequest) (OrderResponse, error) {
	bill, err := s.findBill(ctx, req)
	if err != nil {
		return OrderResponse{}, err
	}
	if bill.UserID == nil || *bill.UserID != actor.ID {
		return OrderResponse{}, forbiddenf("you can only pay your own bills")
	}
	if bill.IsSettled() {
		return OrderResponse{}, stateErrorf("bill has already been paid")
	}
	if !bill.Amount.IsPositive() {
		return OrderResponse{}, validationErrorf("bill amount must be greater than zero")
	}

	order, err := s.gateway.CreateOrder(ctx, toMinor(bill.Amount), s.currency, bill.ID.String())
	if err != nil {
		return OrderResponse{}, fmt.Errorf("failed to create gateway order: %w", err)
	}
	bill.GatewayOrderID = order.ID
	if err := s.repos.Payments.Update(ctx, bill); err != nil {
		return OrderResponse{}, fmt.Errorf("failed to save payment: %w", err)
	}
	return OrderResponse{PaymentID: bill.ID.String(), Order: order}, nil
}

func (s *billingService) findBill(ctx context.Context, req PayBillRequest) (*model.Payment, error) {
	if req.PaymentID != "" {
		id, err := parseID(req.PaymentID, "payment")
		if err != nil {
			return nil, err
		}
		bill, err := s.repos.Payments.FindByID(ctx, id)
		if err == nil {
			return bill, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, lookup(err, "payment")
		}
		// Clients sometimes send the pickup id in the payment field.
		if req.PickupID == "" {
			req.PickupID = req.PaymentID
		}
	}
	if req.PickupID == "" {
		return nil, validationErrorf("payment_id or pickup_id is required")
	}

	pickupID, err := parseID(req.PickupID, "pickup")
	if err != nil {
		return nil, err
	}
	bill, err := s.repos.Payments.FindLatestByPickup(ctx, pickupID)
	if err != nil {
		return nil, lookup(err, "payment")
	}
	return bill, nil
}

// Verify settles the payment behind a gateway callback. The gateway check runs before
// anything is written; a payment that is already settled is reported without changes.
func (s *billingService) Verify(ctx context.Context, req VerifyPaymentRequest) (VerifyResponse, error) {
	cb := payment.Callback{OrderID: req.OrderID, PaymentID: req.PaymentID, Signature: req.Signature}
	if err := s.gateway.Verify(ctx, cb); err != nil {
		metrics.PaymentVerifications.WithLabelValues("rejected").Inc()
		s.log.Warn("payment verification rejected", "order_id", req.OrderID, "error", err)
		return VerifyResponse{}, &DomainError{Kind: KindValidation, Msg: "payment verification failed", Err: err}
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTTL)
	defer cancel()
	release, err := s.locker.Acquire(lockCtx, "payment:verify:"+req.OrderID, s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return VerifyResponse{}, &DomainError{Kind: KindConflict, Msg: "payment is being verified, retry shortly", Err: err}
		}
		return VerifyResponse{}, fmt.Errorf("failed to acquire verification lock: %w", err)
	}
	defer release()

	var (
		resp    VerifyResponse
		settled *model.Payment
		pickup  *model.PickupRequest
	)
	err = s.repos.Transaction.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.repos.Payments.FindByGatewayOrderID(txCtx, req.OrderID)
		if err != nil {
			return lookup(err, "payment")
		}
		resp = VerifyResponse{PaymentID: p.ID.String()}
		if p.IsSettled() {
			resp.Status = p.Status
			resp.AlreadyVerified = true
			return nil
		}

		p.Status = model.PaymentCompleted
		p.GatewayPaymentID = req.PaymentID
		p.GatewaySignature = req.Signature
		p.PaymentDate = s.clock.Now().UTC()
		if err := s.repos.Payments.Update(txCtx, p); err != nil {
			return fmt.Errorf("failed to settle payment: %w", err)
		}
		if err := writeAudit(txCtx, s.repos.Audit, nil, model.ActionVerifyPayment, p.ID.String(), req.OrderID, map[string]any{
			"gateway_payment_id": req.PaymentID,
			"amount":             p.Amount.StringFixed(2),
		}); err != nil {
			return err
		}
		resp.Status = p.Status
		settled = p

		if p.PickupID == nil {
			return nil
		}
		pickup, err = s.repos.Pickups.FindByIDForUpdate(txCtx, *p.PickupID)
		if err != nil {
			return lookup(err, "pickup")
		}
		resp.PickupID = pickup.ID.String()
		switch pickup.Status {
		case model.PickupPaymentPending, model.PickupPaid:
			result, err := s.completer.finalize(txCtx, pickup, nil)
			if err != nil {
				return err
			}
			resp.PointsEarned = result.Points
		case model.PickupCompleted:
		default:
			s.log.Warn("settled payment for unbilled pickup", "pickup_id", pickup.ID, "status", pickup.Status)
		}
		resp.PickupStatus = string(pickup.Status)
		return nil
	})
	if err != nil {
		metrics.PaymentVerifications.WithLabelValues("failed").Inc()
		return VerifyResponse{}, err
	}

	if resp.AlreadyVerified {
		metrics.PaymentVerifications.WithLabelValues("duplicate").Inc()
		return resp, nil
	}
	metrics.PaymentVerifications.WithLabelValues("verified").Inc()

	e := events.Event{Type: events.PaymentVerified, PaymentID: settled.ID.String(), Status: settled.Status, Amount: settled.Amount.StringFixed(2)}
	if settled.UserID != nil {
		e.UserID = settled.UserID.String()
	}
	if pickup != nil {
		e.PickupID = pickup.ID.String()
		e.City = pickup.User.City
		e.WasteType = pickup.WasteType
		e.Points = resp.PointsEarned
	}
	s.publish(ctx, e)
	return resp, nil
}

func (s *billingService) History(ctx context.Context, actor Actor) ([]PaymentResponse, error) {
	payments, err := s.repos.Payments.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payments: %w", err)
	}
	out := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, toPaymentResponse(&payments[i]))
	}
	return out, nil
}

func (s *billingService) requireAssignedCollector(ctx context.Context, actor Actor, pickup *model.PickupRequest) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role != model.RoleCollector {
		return forbiddenf("only the assigned collector can bill this pickup")
	}
	collector, err := s.repos.Collectors.FindByUserID(ctx, actor.ID)
	if err != nil {
		return lookup(err, "collector")
	}
	if pickup.CollectorID == nil || *pickup.CollectorID != collector.ID {
		return forbiddenf("pickup is not assigned to you")
	}
	return nil
}

func (s *billingService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("event not delivered", "type", e.Type, "payment_id", e.PaymentID, "error", err)
	}
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, validationErrorf("amount must be a number")
	}
	if amount.LessThan(minBillAmount) || amount.GreaterThan(maxBillAmount) {
		return decimal.Zero, validationErrorf("amount must be between %s and %s", minBillAmount.StringFixed(2), maxBillAmount.StringFixed(2))
	}
	return amount.Round(2), nil
}

func toMinor(amount decimal.Decimal) int64 {
	return amount.Mul(minorPerMajor).Round(0).IntPart()
}

func toPaymentResponse(p *model.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:             p.ID.String(),
		Amount:         p.Amount.StringFixed(2),
		Mode:           p.Mode,
		Status:         p.Status,
		GatewayOrderID: p.GatewayOrderID,
		PaymentDate:    formatTime(p.PaymentDate),
	}
	resp.UserID = uuidString(p.UserID)
	resp.BusinessID = uuidString(p.BusinessID)
	resp.PickupID = uuidString(p.PickupID)
	return resp
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
