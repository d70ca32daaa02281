package repository

import (
	"context"

	"bintobloom/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CollectorRepository interface {
	Create(ctx context.Context, c *model.Collector) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Collector, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Collector, error)
	Update(ctx context.Context, c *model.Collector) error
	Count(ctx context.Context) (int64, error)
}

type collectorRepository struct {
	db *gorm.DB
}

func NewCollectorRepository(db *gorm.DB) CollectorRepository {
	return &collectorRepository{db: db}
}

func (r *collectorRepository) Create(ctx context.Context, c *model.Collector) error {
	return GetDB(ctx, r.db).Create(c).Error
}

func (r *collectorRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Collector, error) {
	var c model.Collector
	if err := GetDB(ctx, r.db).Preload("User").First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *collectorRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.Collector, error) {
	var c model.Collector
	if err := GetDB(ctx, r.db).Preload("User").First(&c, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *collectorRepository) Update(ctx context.Context, c *model.Collector) error {
	return GetDB(ctx, r.db).Omit("User").Save(c).Error
}

func (r *collectorRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Collector{}).Count(&total).Error
	return total, err
}
