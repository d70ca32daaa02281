package repository

import (
	"context"
	"fmt"
	"time"

	"bintobloom/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RevenueRow is one settled payment, reduced to what revenue reports group on.
type RevenueRow struct {
	PaymentDate time.Time       `gorm:"column:payment_date"`
	Amount      decimal.Decimal `gorm:"column:amount"`
	PickupID    *uuid.UUID      `gorm:"column:pickup_id"`
}

type RevenueRepository interface {
	SettledPayments(ctx context.Context, tr model.TimeRange) ([]RevenueRow, error)
}

type revenueRepository struct {
	db *gorm.DB
}

func NewRevenueRepository(db *gorm.DB) RevenueRepository {
	return &revenueRepository{db: db}
}

// SettledPayments returns settled payments inside tr ordered by payment date.
// Grouping happens in the caller so the query stays portable between postgres and sqlite.
func (r *revenueRepository) SettledPayments(ctx context.Context, tr model.TimeRange) ([]RevenueRow, error) {
	q := GetDB(ctx, r.db).Model(&model.Payment{}).
		Select("payment_date, amount, pickup_id").
		Where("status IN ?", []string{model.PaymentCompleted, model.PaymentSuccess})
	if !tr.Start.IsZero() {
		q = q.Where("payment_date >= ?", tr.Start)
	}
	if !tr.End.IsZero() {
		q = q.Where("payment_date <= ?", tr.End)
	}

	var rows []RevenueRow
	if err := q.Order("payment_date").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query revenue statistics: %w", err)
	}
	return rows, nil
}
