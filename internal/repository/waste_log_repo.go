package repository

import (
	"context"

	"bintobloom/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WasteLogRepository interface {
	Create(ctx context.Context, w *model.WasteLog) error
	FindLatestByPickup(ctx context.Context, pickupID uuid.UUID) (*model.WasteLog, error)
	Update(ctx context.Context, w *model.WasteLog) error
	TotalByUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	Total(ctx context.Context) (decimal.Decimal, error)
}

type wasteLogRepository struct {
	db *gorm.DB
}

func NewWasteLogRepository(db *gorm.DB) WasteLogRepository {
	return &wasteLogRepository{db: db}
}

func (r *wasteLogRepository) Create(ctx context.Context, w *model.WasteLog) error {
	return GetDB(ctx, r.db).Omit("Pickup").Create(w).Error
}

func (r *wasteLogRepository) FindLatestByPickup(ctx context.Context, pickupID uuid.UUID) (*model.WasteLog, error) {
	var w model.WasteLog
	if err := GetDB(ctx, r.db).
		Where("pickup_id = ?", pickupID).
		Order("collected_at DESC").
		First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *wasteLogRepository) Update(ctx context.Context, w *model.WasteLog) error {
	return GetDB(ctx, r.db).Omit("Pickup").Save(w).Error
}

// TotalByUser sums the weight logged against every pickup userID requested.
func (r *wasteLogRepository) TotalByUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := GetDB(ctx, r.db).Table("waste_logs").
		Select("COALESCE(SUM(waste_logs.weight_kg), 0)").
		Joins("JOIN pickup_requests ON pickup_requests.id = waste_logs.pickup_id").
		Where("pickup_requests.user_id = ?", userID).
		Row().Scan(&total)
	return total, err
}

func (r *wasteLogRepository) Total(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := GetDB(ctx, r.db).Table("waste_logs").
		Select("COALESCE(SUM(weight_kg), 0)").
		Row().Scan(&total)
	return total, err
}
