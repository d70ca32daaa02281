package repository

import (
	"context"

	"bintobloom/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RewardRepository is append-only: EcoReward rows are never updated or deleted.
type RewardRepository interface {
	Create(ctx context.Context, reward *model.EcoReward) error
	ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.EcoReward, error)
	SumPointsByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	CountByPickup(ctx context.Context, pickupID uuid.UUID) (int64, error)
}

type rewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &rewardRepository{db: db}
}

func (r *rewardRepository) Create(ctx context.Context, reward *model.EcoReward) error {
	return GetDB(ctx, r.db).Create(reward).Error
}

func (r *rewardRepository) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.EcoReward, error) {
	var rewards []model.EcoReward
	if err := GetDB(ctx, r.db).
		Where("user_id = ?", userID).
		Order("earned_on DESC").
		Limit(limit).
		Find(&rewards).Error; err != nil {
		return nil, err
	}
	return rewards, nil
}

func (r *rewardRepository) SumPointsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.EcoReward{}).
		Select("COALESCE(SUM(points_earned), 0)").
		Where("user_id = ?", userID).
		Row().Scan(&total)
	return total, err
}

func (r *rewardRepository) CountByPickup(ctx context.Context, pickupID uuid.UUID) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.EcoReward{}).Where("pickup_id = ?", pickupID).Count(&total).Error
	return total, err
}
