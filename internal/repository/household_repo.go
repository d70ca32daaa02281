package repository

import (
	"context"

	"bintobloom/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LeaderboardRow is a household joined with its owner's display name.
type LeaderboardRow struct {
	UserID          uuid.UUID
	Name            string
	City            string
	TotalWasteKg    decimal.Decimal
	EcoPoints       int
	LeaderboardRank int
}

type HouseholdRepository interface {
	Create(ctx context.Context, h *model.HouseholdDetail) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.HouseholdDetail, error)
	Update(ctx context.Context, h *model.HouseholdDetail) error
	ListAll(ctx context.Context) ([]model.HouseholdDetail, error)
	UpdateRank(ctx context.Context, id uuid.UUID, rank int) error
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error)
}

type householdRepository struct {
	db *gorm.DB
}

func NewHouseholdRepository(db *gorm.DB) HouseholdRepository {
	return &householdRepository{db: db}
}

func (r *householdRepository) Create(ctx context.Context, h *model.HouseholdDetail) error {
	return GetDB(ctx, r.db).Create(h).Error
}

func (r *householdRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.HouseholdDetail, error) {
	var h model.HouseholdDetail
	if err := forUpdate(GetDB(ctx, r.db)).Preload("User").First(&h, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *householdRepository) Update(ctx context.Context, h *model.HouseholdDetail) error {
	return GetDB(ctx, r.db).Omit("User").Save(h).Error
}

// ListAll loads every household whose user is not deleted; the leaderboard snapshot phase.
func (r *householdRepository) ListAll(ctx context.Context) ([]model.HouseholdDetail, error) {
	var rows []model.HouseholdDetail
	if err := GetDB(ctx, r.db).
		Joins("JOIN users ON users.id = household_details.user_id AND users.deleted_at IS NULL").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *householdRepository) UpdateRank(ctx context.Context, id uuid.UUID, rank int) error {
	return GetDB(ctx, r.db).Model(&model.HouseholdDetail{}).
		Where("id = ?", id).
		UpdateColumn("leaderboard_rank", rank).Error
}

// Leaderboard returns households ordered by persisted rank. Rank 0 (never ranked) sorts last.
func (r *householdRepository) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	var rows []LeaderboardRow
	if err := GetDB(ctx, r.db).Table("household_details").
		Select("household_details.user_id, users.name, users.city, household_details.total_waste_kg, household_details.eco_points, household_details.leaderboard_rank").
		Joins("JOIN users ON users.id = household_details.user_id AND users.deleted_at IS NULL").
		Where("household_details.leaderboard_rank > 0").
		Order("household_details.leaderboard_rank ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
