package repository

import (
	"context"

	"bintobloom/internal/model"

	"gorm.io/gorm"
)

// AuditFilter narrows audit listing. Empty fields are ignored.
type AuditFilter struct {
	Action   string
	EntityID string
}

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, filter AuditFilter, page, limit int) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Omit("User").Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter, page, limit int) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	scope := func(q *gorm.DB) *gorm.DB {
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.EntityID != "" {
			q = q.Where("entity_id = ?", filter.EntityID)
		}
		return q
	}

	db := GetDB(ctx, r.db)
	if err := scope(db.Model(&model.AuditLog{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := scope(db.Preload("User")).Order("created_at desc").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
