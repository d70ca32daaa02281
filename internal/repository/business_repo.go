package repository

import (
	"context"

	"bintobloom/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BusinessRepository interface {
	Create(ctx context.Context, b *model.BusinessDetail) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.BusinessDetail, error)
	Update(ctx context.Context, b *model.BusinessDetail) error
	Leaderboard(ctx context.Context, limit int) ([]model.BusinessDetail, error)
}

type businessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) Create(ctx context.Context, b *model.BusinessDetail) error {
	return GetDB(ctx, r.db).Create(b).Error
}

func (r *businessRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.BusinessDetail, error) {
	var b model.BusinessDetail
	if err := forUpdate(GetDB(ctx, r.db)).Preload("User").First(&b, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *businessRepository) Update(ctx context.Context, b *model.BusinessDetail) error {
	return GetDB(ctx, r.db).Omit("User").Save(b).Error
}

func (r *businessRepository) Leaderboard(ctx context.Context, limit int) ([]model.BusinessDetail, error) {
	var rows []model.BusinessDetail
	if err := GetDB(ctx, r.db).Preload("User").
		Order("sustainability_score DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
