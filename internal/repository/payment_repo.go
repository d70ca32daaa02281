package repository

import (
	"context"

	"bintobloom/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	FindByGatewayOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	FindLatestByPickup(ctx context.Context, pickupID uuid.UUID) (*model.Payment, error)
	Update(ctx context.Context, p *model.Payment) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Payment, error)
	SumSettled(ctx context.Context) (int64, decimal.Decimal, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *model.Payment) error {
	return GetDB(ctx, r.db).Create(p).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	if err := forUpdate(GetDB(ctx, r.db)).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByGatewayOrderID locks the payment row on postgres; call it inside RunInTx.
func (r *paymentRepository) FindByGatewayOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	var p model.Payment
	if err := forUpdate(GetDB(ctx, r.db)).First(&p, "gateway_order_id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) FindLatestByPickup(ctx context.Context, pickupID uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	if err := forUpdate(GetDB(ctx, r.db)).
		Where("pickup_id = ?", pickupID).
		Order("created_at DESC").
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) Update(ctx context.Context, p *model.Payment) error {
	return GetDB(ctx, r.db).Save(p).Error
}

// ListByUser returns payments the user made or that were billed to their business profile.
func (r *paymentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Payment, error) {
	var payments []model.Payment
	if err := GetDB(ctx, r.db).
		Where("user_id = ?", userID).
		Or("business_id IN (?)", GetDB(ctx, r.db).Model(&model.BusinessDetail{}).Select("id").Where("user_id = ?", userID)).
		Order("payment_date DESC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// SumSettled returns the count and total amount of settled payments.
func (r *paymentRepository) SumSettled(ctx context.Context) (int64, decimal.Decimal, error) {
	var result struct {
		Count int64
		Total decimal.Decimal
	}
	err := GetDB(ctx, r.db).Model(&model.Payment{}).
		Select("COUNT(*) as count, COALESCE(SUM(amount), 0) as total").
		Where("status IN ?", []string{model.PaymentCompleted, model.PaymentSuccess}).
		Scan(&result).Error
	return result.Count, result.Total, err
}
