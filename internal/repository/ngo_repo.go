package repository

import (
	"context"

	"bintobloom/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NGORepository interface {
	Create(ctx context.Context, n *model.NGO) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.NGO, error)
	Update(ctx context.Context, n *model.NGO) error
	Count(ctx context.Context) (int64, error)
	CreateReport(ctx context.Context, report *model.NGOReport) error
	ListReports(ctx context.Context, ngoID uuid.UUID) ([]model.NGOReport, error)
	CountReports(ctx context.Context, ngoID uuid.UUID) (int64, error)
}

type ngoRepository struct {
	db *gorm.DB
}

func NewNGORepository(db *gorm.DB) NGORepository {
	return &ngoRepository{db: db}
}

func (r *ngoRepository) Create(ctx context.Context, n *model.NGO) error {
	return GetDB(ctx, r.db).Create(n).Error
}

func (r *ngoRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.NGO, error) {
	var n model.NGO
	if err := GetDB(ctx, r.db).Preload("User").First(&n, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *ngoRepository) Update(ctx context.Context, n *model.NGO) error {
	return GetDB(ctx, r.db).Omit("User").Save(n).Error
}

func (r *ngoRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.NGO{}).Count(&total).Error
	return total, err
}

func (r *ngoRepository) CreateReport(ctx context.Context, report *model.NGOReport) error {
	return GetDB(ctx, r.db).Omit("NGO").Create(report).Error
}

func (r *ngoRepository) ListReports(ctx context.Context, ngoID uuid.UUID) ([]model.NGOReport, error) {
	var reports []model.NGOReport
	if err := GetDB(ctx, r.db).
		Where("ngo_id = ?", ngoID).
		Order("generated_on DESC").
		Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *ngoRepository) CountReports(ctx context.Context, ngoID uuid.UUID) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.NGOReport{}).Where("ngo_id = ?", ngoID).Count(&total).Error
	return total, err
}
