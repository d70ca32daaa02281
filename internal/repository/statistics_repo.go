package repository

import (
	"context"
	"fmt"

	"bintobloom/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StatisticsRepository runs the read-only aggregates behind NGO and admin analytics.
// An empty city matches every city.
type StatisticsRepository interface {
	WasteByCity(ctx context.Context, city string, tr model.TimeRange) ([]model.CityWaste, error)
	WasteByType(ctx context.Context, city string, tr model.TimeRange) ([]model.TypeWaste, error)
	TotalWaste(ctx context.Context, city string, tr model.TimeRange) (decimal.Decimal, error)
	PickupsByStatus(ctx context.Context, city string) ([]model.StatusCount, error)
	CountPickups(ctx context.Context, city string, statuses []model.PickupStatus) (int64, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

// wasteLogs joins waste_logs through pickup_requests to the requester's user row.
func (r *statisticsRepository) wasteLogs(ctx context.Context, city string, tr model.TimeRange) *gorm.DB {
	q := GetDB(ctx, r.db).Table("waste_logs").
		Joins("JOIN pickup_requests ON pickup_requests.id = waste_logs.pickup_id").
		Joins("JOIN users ON users.id = pickup_requests.user_id")
	if city != "" {
		q = q.Where("users.city = ?", city)
	}
	if !tr.Start.IsZero() {
		q = q.Where("waste_logs.collected_at >= ?", tr.Start)
	}
	if !tr.End.IsZero() {
		q = q.Where("waste_logs.collected_at <= ?", tr.End)
	}
	return q
}

func (r *statisticsRepository) WasteByCity(ctx context.Context, city string, tr model.TimeRange) ([]model.CityWaste, error) {
	var rows []model.CityWaste
	if err := r.wasteLogs(ctx, city, tr).
		Select("users.city as city, COALESCE(SUM(waste_logs.weight_kg), 0) as total_waste, COUNT(DISTINCT pickup_requests.id) as total_pickups").
		Group("users.city").
		Order("total_waste DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query waste by city: %w", err)
	}
	return rows, nil
}

func (r *statisticsRepository) WasteByType(ctx context.Context, city string, tr model.TimeRange) ([]model.TypeWaste, error) {
	var rows []model.TypeWaste
	if err := r.wasteLogs(ctx, city, tr).
		Select("waste_logs.waste_type as waste_type, COALESCE(SUM(waste_logs.weight_kg), 0) as total_waste").
		Group("waste_logs.waste_type").
		Order("total_waste DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query waste by type: %w", err)
	}
	return rows, nil
}

func (r *statisticsRepository) TotalWaste(ctx context.Context, city string, tr model.TimeRange) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.wasteLogs(ctx, city, tr).
		Select("COALESCE(SUM(waste_logs.weight_kg), 0)").
		Row().Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to query total waste: %w", err)
	}
	return total, nil
}

func (r *statisticsRepository) pickups(ctx context.Context, city string) *gorm.DB {
	q := GetDB(ctx, r.db).Table("pickup_requests")
	if city != "" {
		q = q.Joins("JOIN users ON users.id = pickup_requests.user_id").Where("users.city = ?", city)
	}
	return q
}

func (r *statisticsRepository) PickupsByStatus(ctx context.Context, city string) ([]model.StatusCount, error) {
	var rows []model.StatusCount
	if err := r.pickups(ctx, city).
		Select("pickup_requests.status as status, COUNT(*) as count").
		Group("pickup_requests.status").
		Order("pickup_requests.status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query pickups by status: %w", err)
	}
	return rows, nil
}

// CountPickups counts pickups in any of statuses, or all pickups when statuses is empty.
func (r *statisticsRepository) CountPickups(ctx context.Context, city string, statuses []model.PickupStatus) (int64, error) {
	var total int64
	q := r.pickups(ctx, city)
	if len(statuses) > 0 {
		q = q.Where("pickup_requests.status IN ?", statuses)
	}
	if err := q.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count pickups: %w", err)
	}
	return total, nil
}
